package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"src.elv.sh/pkg/sys"

	"github.com/elves/jobsh/pkg/config"
	"github.com/elves/jobsh/pkg/eval"
	"github.com/elves/jobsh/pkg/shell"
)

var (
	command  string
	printAST bool
	cfgPath  string

	exitStatus int
)

var rootCmd = &cobra.Command{
	Use:   "jobsh [script [args...]]",
	Short: "A POSIX-style shell with job control",
	Long: `jobsh runs the script named by the first argument, the command string given
with -c, or commands read from stdin. With a terminal on stdin and no script,
it runs interactively.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	Run:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run the given command string")
	rootCmd.Flags().BoolVar(&printAST, "print-ast", false, "print the AST of each parsed script")
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "config path (default $XDG_CONFIG_HOME/jobsh/config.yaml)")
	// Flags after the script name belong to the script.
	rootCmd.Flags().SetInterspersed(false)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("jobsh: ")
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitStatus)
}

func run(cmd *cobra.Command, args []string) {
	interactive := command == "" && len(args) == 0 &&
		sys.IsATTY(os.Stdin.Fd()) && sys.IsATTY(os.Stdout.Fd())

	evArgs := args
	if len(evArgs) == 0 {
		evArgs = []string{os.Args[0]}
	}
	ev := eval.NewEvaler(evArgs, eval.StdFiles)
	// The rc file only applies to interactive shells.
	if interactive {
		if err := loadConfig().Apply(ev); err != nil {
			log.Println("config:", err)
		}
	}
	sh := shell.New(ev, cmd.ErrOrStderr())
	sh.PrintAST = printAST

	switch {
	case command != "":
		exitStatus = sh.RunString("-c", command)
	case len(args) > 0:
		f, err := os.Open(args[0])
		if err != nil {
			log.Println(err)
			exitStatus = eval.StatusCommandNotFound
			return
		}
		defer f.Close()
		exitStatus = sh.RunReader(args[0], f)
	case interactive:
		exitStatus = sh.Interact(os.Stdin, os.Stdout)
	default:
		exitStatus = sh.RunReader("[stdin]", os.Stdin)
	}
}

func loadConfig() *config.Config {
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFrom(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Println(err)
		return config.Default()
	}
	return cfg
}
