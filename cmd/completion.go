package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_ramvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init add get rm ls status passwd import export diff compact seal unseal sniff hash keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            COMPREPLY=($(compgen -W "-u --username --user-id -a --alias -d --description -g --group --with-password" -- "$cur"))
            ;;
        get|rm)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--token" -- "$cur"))
            else
                local accounts
                accounts=$(ramvault ls 2>/dev/null | awk '/^    [0-9A-F]+  / {print $2}')
                COMPREPLY=($(compgen -W "$accounts" -- "$cur"))
            fi
            ;;
        import)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--strategy --force --keep-vault" -- "$cur"))
            else
                _filedir
            fi
            ;;
        export)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--plaintext" -- "$cur"))
            else
                _filedir
            fi
            ;;
        diff|seal|unseal|sniff)
            _filedir
            ;;
        hash)
            if [[ "$prev" == "--algo" ]]; then
                COMPREPLY=($(compgen -W "sha256 md5" -- "$cur"))
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--algo --text" -- "$cur"))
            else
                _filedir
            fi
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _ramvault ramvault
`

const zshCompletion = `#compdef ramvault

_ramvault() {
    local -a commands
    commands=(
        'init:Create a .ramvault vault in current directory'
        'add:Seal a new account into the vault'
        'get:Print an account from the vault'
        'rm:Remove accounts from the vault'
        'ls:Show vault status'
        'status:Show vault status'
        'passwd:Change vault password'
        'import:Merge an AccountData.json file into the vault'
        'export:Write vault accounts to an AccountData.json file'
        'diff:Compare the vault with an AccountData.json file'
        'compact:Compact vault to reclaim disk space'
        'seal:Encrypt a file into a container'
        'unseal:Decrypt a container file'
        'sniff:Report whether files are sealed'
        'hash:Print MD5 or SHA-256 digests'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'ramvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                get|rm)
                    _arguments \
                        '--token[Print only the security token]' \
                        '*:account:_ramvault_accounts'
                    ;;
                import)
                    _arguments \
                        '--strategy[Conflict strategy]:strategy:(ask keep-vault use-import abort)' \
                        '--force[Use imported versions on conflict]' \
                        '--keep-vault[Keep vault versions on conflict]' \
                        '*:file:_files'
                    ;;
                export)
                    _arguments \
                        '--plaintext[Write unencrypted JSON]' \
                        '*:file:_files'
                    ;;
                diff|seal|unseal|sniff)
                    _files
                    ;;
                hash)
                    _arguments \
                        '--algo[Digest algorithm]:algorithm:(sha256 md5)' \
                        '--text[Hash a string instead of files]:text:' \
                        '*:file:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'ramvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_ramvault_accounts() {
    local -a accounts
    accounts=(${(f)"$(ramvault ls 2>/dev/null | awk '/^    [0-9A-F]+  / {print $2}')"})
    _describe -t accounts 'vault accounts' accounts
}

_ramvault "$@"
`

const fishCompletion = `# ramvault fish completions

set -l commands init add get rm ls status passwd import export diff compact seal unseal sniff hash keyring help completion

complete -c ramvault -f

# Commands
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a .ramvault vault'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a add -d 'Seal a new account'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print an account'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove accounts'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'Show vault status'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change vault password'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a import -d 'Import AccountData.json'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a export -d 'Export AccountData.json'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare vault with a file'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a seal -d 'Encrypt a file'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a unseal -d 'Decrypt a file'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a sniff -d 'Report sealed files'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a hash -d 'Print digests'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c ramvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# account arguments
complete -c ramvault -n "__fish_seen_subcommand_from get rm" -a "(ramvault ls 2>/dev/null | awk '/^    [0-9A-F]+  / {print \$2}')"
complete -c ramvault -n "__fish_seen_subcommand_from get" -l token -d 'Print only the security token'

# file arguments
complete -c ramvault -n "__fish_seen_subcommand_from import export diff seal unseal sniff hash" -F
complete -c ramvault -n "__fish_seen_subcommand_from import" -l strategy -a "ask keep-vault use-import abort"
complete -c ramvault -n "__fish_seen_subcommand_from export" -l plaintext -d 'Write unencrypted JSON'
complete -c ramvault -n "__fish_seen_subcommand_from hash" -l algo -a "sha256 md5"

# keyring subcommands
complete -c ramvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c ramvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c ramvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
