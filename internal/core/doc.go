// Package core provides the ramvault vault operations.
//
// Core operations include:
//   - Init: Create a new vault protected by a password check container
//   - AddAccount/GetAccount/RemoveAccounts: Seal, open and drop accounts
//   - ChangePassword: Re-seal every account under a new password
//   - Import/Export/Diff: Exchange accounts with AccountData.json files,
//     sniffing the container header to tell encrypted files from plaintext
//   - SealFile/UnsealFile/Sniff: Container operations on arbitrary files
//
// Every account is stored as its own container, so each one carries a fresh
// salt and nonce. List and Status read only the unencrypted index and need
// no password.
//
// Conflicts during import support multiple strategies:
//   - Keep the vault version
//   - Use the imported version
//   - Edit merged (opens $EDITOR with git-style conflict markers)
//   - Abort
package core
