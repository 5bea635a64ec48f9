// Package git provides git integration status checks for ramvault.
//
// Checks performed:
//   - Whether the vault file is tracked or ignored by git
//   - Whether plaintext AccountData exports are tracked by git (should not be)
//   - Whether plaintext exports are in .gitignore (should be)
package git
