// package app ties together all bits and pieces to start the program
package app

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/johannes-kuhfuss/pubwizard/config"
	"github.com/johannes-kuhfuss/pubwizard/service"
	"github.com/johannes-kuhfuss/services_utils/logger"
)

var (
	cfg          config.AppConfig
	pubClient    service.DefaultPublicationClient
	pubActions   *service.PublicationActions
	experimentId int64
	action       string
)

// RunApp orchestrates the startup of the application
func RunApp() {
	getCmdLine()
	err := config.InitConfig(config.EnvFile, &cfg)
	if err != nil {
		panic(err)
	}
	cfg.RunTime.ExperimentId = experimentId
	cfg.RunTime.Action = action
	wireApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runAction(ctx, bufio.NewScanner(os.Stdin), os.Stdout); err != nil {
		logger.Error("Publication action failed", err)
		os.Exit(1)
	}
}

// getCmdLine checks the command line arguments
func getCmdLine() {
	flag.StringVar(&config.EnvFile, "config.file", ".env", "Specify location of config file. Default is .env")
	flag.Int64Var(&experimentId, "experiment", 0, "Id of the experiment to publish or of the publication to act on")
	flag.StringVar(&action, "action", "create", "One of create, resume, share, delete, mint-doi")
	flag.Parse()
}

// wireApp initializes the services in the right order and injects the dependencies
func wireApp() {
	pubClient = service.NewPublicationClient(&cfg)
	pubActions = service.NewPublicationActions(&cfg, pubClient, cfg.RunTime.ExperimentId)
}

// runAction performs the requested action on the publication
func runAction(ctx context.Context, in *bufio.Scanner, out io.Writer) error {
	if err := pubActions.Init(ctx); err != nil {
		logger.Error("Cannot determine publication state", err)
	}
	confirm := service.ConfirmFunc(func(title string, text string) bool {
		fmt.Fprintf(out, "%v %v [y/N]: ", title, text)
		return strings.EqualFold(readLine(in), "y")
	})
	switch cfg.RunTime.Action {
	case "create":
		return runWizard(ctx, pubActions.CreatePublication(), in, out)
	case "resume":
		p, err := pubActions.ResumePublication(ctx)
		if err != nil {
			for _, msg := range pubActions.ErrorMessages() {
				fmt.Fprintln(out, msg)
			}
			return err
		}
		return runWizard(ctx, p, in, out)
	case "share":
		if err := pubActions.SharePublication(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created access token for publication %v\r\n", cfg.RunTime.ExperimentId)
		return nil
	case "delete":
		printNavigation(out, pubActions.DeletePublicationDraft(ctx, confirm))
		return nil
	case "mint-doi":
		printNavigation(out, pubActions.MintDOI(ctx, confirm))
		return nil
	default:
		return fmt.Errorf("unknown action %q", cfg.RunTime.Action)
	}
}

// runWizard walks through the form and reports where to go once it was closed
func runWizard(ctx context.Context, p *service.PagePipeline, in *bufio.Scanner, out io.Writer) error {
	experiments, err := pubClient.FetchExperiments(ctx)
	if err != nil {
		logger.Error("Cannot load experiments and datasets", err)
	}
	w := wizard{
		pipeline:     p,
		experiments:  experiments,
		experimentId: cfg.RunTime.ExperimentId,
		in:           in,
		out:          out,
	}
	publicationId := w.run(ctx)
	printNavigation(out, pubActions.OnClose(publicationId))
	return nil
}

func printNavigation(out io.Writer, nav service.Navigation) {
	switch nav.Kind {
	case service.Redirect:
		fmt.Fprintf(out, "Publication saved, continue at %v%v\r\n", cfg.Server.Host, nav.URL)
	case service.Reload:
		fmt.Fprintln(out, "Done. Reload the experiment page to see the changes.")
	}
}
