package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/ramvault/cmd"
	"github.com/illarion/ramvault/internal/config"
	"github.com/illarion/ramvault/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	cmd.Setup(cfg)

	args := os.Args[2:]
	switch os.Args[1] {
	case "init":
		parseNoFlags("init", args)
		cmd.Init()
	case "add":
		runAdd(ctx, args)
	case "get":
		runGet(ctx, args)
	case "rm":
		cmd.Remove(ctx, parseNoFlags("rm", args))
	case "ls", "status":
		parseNoFlags(os.Args[1], args)
		cmd.Status(ctx)
	case "passwd":
		parseNoFlags("passwd", args)
		cmd.Passwd(ctx)
	case "import":
		runImport(ctx, args)
	case "export":
		runExport(ctx, args)
	case "diff":
		cmd.Diff(ctx, singleFile("diff", parseNoFlags("diff", args), core.AccountDataFile))
	case "compact":
		parseNoFlags("compact", args)
		cmd.Compact()
	case "seal":
		src, dst := srcDst("seal", parseNoFlags("seal", args))
		cmd.Seal(src, dst)
	case "unseal":
		src, dst := srcDst("unseal", parseNoFlags("unseal", args))
		cmd.Unseal(src, dst)
	case "sniff":
		files := parseNoFlags("sniff", args)
		if len(files) == 0 {
			files = []string{core.AccountDataFile}
		}
		cmd.Sniff(files)
	case "hash":
		runHash(args)
	case "keyring":
		runKeyring(args)
	case "completion":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: ramvault completion <bash|zsh|fish>")
			os.Exit(1)
		}
		cmd.Completion(args[0])
	case "help", "-h", "--help":
		if len(args) == 0 {
			printUsage()
			return
		}
		printCommandHelp(args[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parseNoFlags parses a command that takes only positional arguments
func parseNoFlags(name string, args []string) []string {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return fs.Args()
}

func singleFile(name string, files []string, fallback string) string {
	switch len(files) {
	case 0:
		return fallback
	case 1:
		return files[0]
	}
	fmt.Fprintf(os.Stderr, "Error: %s takes a single file\n", name)
	os.Exit(1)
	return ""
}

func srcDst(name string, files []string) (string, string) {
	switch len(files) {
	case 1:
		return files[0], ""
	case 2:
		return files[0], files[1]
	}
	fmt.Fprintf(os.Stderr, "Usage: ramvault %s <src> [dst]\n", name)
	os.Exit(1)
	return "", ""
}

func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	var opts cmd.AddOptions
	fs.StringVar(&opts.Username, "u", "", "Account username")
	fs.StringVar(&opts.Username, "username", "", "Account username")
	fs.Int64Var(&opts.UserID, "user-id", 0, "Account user id")
	fs.StringVar(&opts.Alias, "a", "", "Alias shown instead of the username")
	fs.StringVar(&opts.Alias, "alias", "", "Alias shown instead of the username")
	fs.StringVar(&opts.Description, "d", "", "Free-form description")
	fs.StringVar(&opts.Description, "description", "", "Free-form description")
	fs.StringVar(&opts.Group, "g", "", "Group name")
	fs.StringVar(&opts.Group, "group", "", "Group name")
	fs.BoolVar(&opts.WithPassword, "with-password", false, "Also prompt for the account password")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Add(ctx, opts)
}

func runGet(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	token := fs.Bool("token", false, "Print only the security token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ramvault get [--token] <username|id>")
		os.Exit(1)
	}

	cmd.Get(ctx, fs.Arg(0), *token)
}

func runImport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	strategyName := fs.String("strategy", "ask", "Conflict strategy: ask, keep-vault, use-import, abort")
	force := fs.Bool("force", false, "Use imported versions on conflict")
	keepVault := fs.Bool("keep-vault", false, "Keep vault versions on conflict")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if *force && *keepVault {
		fmt.Fprintln(os.Stderr, "error: --force and --keep-vault are mutually exclusive")
		os.Exit(1)
	}

	strategy, err := core.ParseStrategy(*strategyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	switch {
	case *force:
		strategy = core.StrategyUseImport
	case *keepVault:
		strategy = core.StrategyKeepVault
	}

	cmd.Import(ctx, singleFile("import", fs.Args(), core.AccountDataFile), strategy)
}

func runExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	plaintext := fs.Bool("plaintext", false, "Write unencrypted JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Export(ctx, singleFile("export", fs.Args(), core.AccountDataFile), *plaintext)
}

func runHash(args []string) {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	algo := fs.String("algo", "sha256", "Digest algorithm: sha256 or md5")
	text := fs.String("text", "", "Hash a string instead of files")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Hash(*algo, *text, fs.Args())
}

func runKeyring(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ramvault keyring <save|delete|status>")
		os.Exit(1)
	}
	switch args[0] {
	case "save":
		cmd.KeyringSave()
	case "delete":
		cmd.KeyringDelete()
	case "status":
		cmd.KeyringStatus()
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ramvault - Encrypted storage for Roblox Account Manager accounts")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ramvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a .ramvault vault in current directory")
	fmt.Println("  add         Seal a new account into the vault")
	fmt.Println("  get         Print an account from the vault")
	fmt.Println("  rm          Remove accounts from the vault")
	fmt.Println("  ls, status  Show vault status")
	fmt.Println("  passwd      Change vault password")
	fmt.Println("  import      Merge an AccountData.json file into the vault")
	fmt.Println("  export      Write vault accounts to an AccountData.json file")
	fmt.Println("  diff        Compare the vault with an AccountData.json file")
	fmt.Println("  compact     Compact vault to reclaim disk space")
	fmt.Println("  seal        Encrypt a file into a container")
	fmt.Println("  unseal      Decrypt a container file")
	fmt.Println("  sniff       Report whether files are sealed")
	fmt.Println("  hash        Print MD5 or SHA-256 digests")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %-20s Vault password (skips the prompt)\n", config.EnvPassword)
	fmt.Printf("  %-20s Vault directory (default: current directory)\n", config.EnvDir)
	fmt.Printf("  %-20s Log level (default: warning)\n", config.EnvLogLevel)
	fmt.Printf("  %-20s Never read or write the OS keyring\n", config.EnvNoKeyring)
	fmt.Println("  Variables are also read from a .env file in the current directory.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ramvault init                        # Create new vault")
	fmt.Println("  ramvault import AccountData.json     # Import accounts")
	fmt.Println("  ramvault get --token builderman      # Print a security token")
	fmt.Println("  ramvault export                      # Write encrypted AccountData.json")
	fmt.Println()
	fmt.Println("Use 'ramvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("ramvault init")
		fmt.Println()
		fmt.Println("Creates a .ramvault vault file in the vault directory.")
		fmt.Println("Prompts for a password that protects every stored account.")
		fmt.Println("The password is not stored anywhere unless you save it to the keyring.")
	case "add":
		fmt.Println("ramvault add [-u username] [--user-id id] [-a alias] [-d description] [-g group] [--with-password]")
		fmt.Println()
		fmt.Println("Seals a new account into the vault. The security token is read from")
		fmt.Println("the terminal without echo, or from stdin when piped.")
		fmt.Println("An account with the same username is replaced.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  ramvault add -u builderman -g Main")
		fmt.Println("  echo \"$TOKEN\" | ramvault add -u builderman")
	case "get":
		fmt.Println("ramvault get [--token] <username|id>")
		fmt.Println()
		fmt.Println("Prints an account as JSON, or only its security token with --token.")
	case "rm":
		fmt.Println("ramvault rm <username|id> [...]")
		fmt.Println()
		fmt.Println("Removes accounts from the vault and compacts it.")
	case "ls", "status":
		fmt.Println("ramvault status")
		fmt.Println()
		fmt.Println("Shows vault status including:")
		fmt.Println("  - Vault id, timestamps, size and SHA-256 fingerprint")
		fmt.Println("  - Encryption parameters")
		fmt.Println("  - Accounts by group")
		fmt.Println("  - Plaintext AccountData files and git integration")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "passwd":
		fmt.Println("ramvault passwd")
		fmt.Println()
		fmt.Println("Changes the vault password and re-seals every account.")
		fmt.Println("Updates the keyring entry if one exists.")
	case "import":
		fmt.Println("ramvault import [--strategy s|--force|--keep-vault] [file]")
		fmt.Println()
		fmt.Println("Merges an AccountData.json file (default: ./AccountData.json) into the vault.")
		fmt.Println("Encrypted files are detected by their header and prompt for their password.")
		fmt.Println()
		fmt.Println("Conflict strategies:")
		fmt.Println("  ask         Prompt for each conflict (default)")
		fmt.Println("  keep-vault  Keep vault versions (--keep-vault)")
		fmt.Println("  use-import  Use imported versions (--force)")
		fmt.Println("  abort       Stop at the first conflict")
		fmt.Println()
		fmt.Println("Interactive mode offers:")
		fmt.Println("    [v] Keep vault version")
		fmt.Println("    [i] Use imported version")
		fmt.Println("    [e] Edit merged (opens in $EDITOR)")
		fmt.Println("    [x] Skip this account")
	case "export":
		fmt.Println("ramvault export [--plaintext] [file]")
		fmt.Println()
		fmt.Println("Writes all accounts to an AccountData.json file (default: ./AccountData.json)")
		fmt.Println("that Roblox Account Manager can load. The file is encrypted with a")
		fmt.Println("password you choose unless --plaintext is given.")
	case "diff":
		fmt.Println("ramvault diff [file]")
		fmt.Println()
		fmt.Println("Compares the vault with an AccountData.json file.")
		fmt.Println("Security tokens and passwords are shown as fingerprints.")
	case "compact":
		fmt.Println("ramvault compact")
		fmt.Println()
		fmt.Println("Compacts the vault database to reclaim unused disk space.")
		fmt.Println("This is done automatically after 'rm' and 'passwd'.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "seal":
		fmt.Println("ramvault seal <src> [dst]")
		fmt.Println()
		fmt.Println("Encrypts a file into a container. Without dst the file is sealed in place.")
	case "unseal":
		fmt.Println("ramvault unseal <src> [dst]")
		fmt.Println()
		fmt.Println("Decrypts a container file. Without dst a .sealed suffix is dropped,")
		fmt.Println("otherwise the file is unsealed in place.")
	case "sniff":
		fmt.Println("ramvault sniff [file...]")
		fmt.Println()
		fmt.Println("Reports whether each file starts with the container header.")
		fmt.Println("No password is needed and nothing is decrypted.")
	case "hash":
		fmt.Println("ramvault hash [--algo sha256|md5] [--text s] [file...]")
		fmt.Println()
		fmt.Println("Prints uppercase hex digests. Unreadable files hash as empty input.")
	case "keyring":
		fmt.Println("ramvault keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Stores the vault password in the OS keyring, keyed by vault id.")
	case "completion":
		fmt.Println("ramvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(ramvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(ramvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  ramvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
