// Command policyctl manages cookie policy versions from the command line:
// exporting and importing policies as JSON files, activating a version and
// listing what is stored.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/dao"
	"github.com/masilia/consent-bundle/internal/database"
	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/service"
)

const usage = `Usage: policyctl <command> [flags]

Commands:
  export     Export a policy version as JSON
  import     Import a policy from a JSON file
  activate   Make a policy version the active one
  list       List stored policy versions
  delete     Delete an inactive policy version

Run 'policyctl <command> --help' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetOutput(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, logger, os.Args[2:])
	case "import":
		err = runImport(ctx, logger, os.Args[2:])
	case "activate":
		err = runActivate(ctx, logger, os.Args[2:])
	case "list":
		err = runList(ctx, logger, os.Args[2:])
	case "delete":
		err = runDelete(ctx, logger, os.Args[2:])
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "policyctl: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// openServices loads configuration, connects to the database and builds
// the policy service the commands operate on.
func openServices(ctx context.Context, logger *logrus.Logger, configPath string) (*service.PolicyService, func(), error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Initialize(&cfg.Database.Consent, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database health check failed: %w", err)
	}

	policyService := service.NewPolicyService(dao.NewPolicyDAO(db), logger)
	return policyService, func() { db.Close() }, nil
}

func runExport(ctx context.Context, logger *logrus.Logger, args []string) error {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := flags.String("config", "", "path to deployment.yaml")
	version := flags.String("version", "", "policy version to export (default: active policy)")
	out := flags.StringP("out", "o", "", "output file (default: stdout)")
	flags.Parse(args)

	policyService, closeFn, err := openServices(ctx, logger, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	file, err := policyService.Export(ctx, *version)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize policy: %w", err)
	}
	data = append(data, '\n')

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	logger.WithFields(logrus.Fields{
		"version": file.CookiePolicy.Version,
		"file":    *out,
	}).Info("Policy exported")
	return nil
}

func runImport(ctx context.Context, logger *logrus.Logger, args []string) error {
	flags := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := flags.String("config", "", "path to deployment.yaml")
	in := flags.StringP("file", "f", "", "policy JSON file to import (required)")
	force := flags.Bool("force", false, "replace an existing policy with the same version")
	activate := flags.Bool("activate", false, "activate the imported policy")
	flags.Parse(args)

	if *in == "" {
		return fmt.Errorf("--file is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *in, err)
	}

	var file models.PolicyExportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("invalid policy file %s: %w", *in, err)
	}

	policyService, closeFn, err := openServices(ctx, logger, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	policy, err := policyService.Import(ctx, &file, *force, *activate)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"version": policy.Version,
		"active":  policy.IsActive,
	}).Info("Policy imported")
	return nil
}

func runActivate(ctx context.Context, logger *logrus.Logger, args []string) error {
	flags := flag.NewFlagSet("activate", flag.ExitOnError)
	configPath := flags.String("config", "", "path to deployment.yaml")
	flags.Parse(args)

	if flags.NArg() != 1 {
		return fmt.Errorf("usage: policyctl activate <version>")
	}

	policyService, closeFn, err := openServices(ctx, logger, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	return policyService.Activate(ctx, flags.Arg(0))
}

func runList(ctx context.Context, logger *logrus.Logger, args []string) error {
	flags := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := flags.String("config", "", "path to deployment.yaml")
	flags.Parse(args)

	policyService, closeFn, err := openServices(ctx, logger, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	versions, err := policyService.ListVersions(ctx)
	if err != nil {
		return err
	}

	if len(versions) == 0 {
		fmt.Println("No policies stored")
		return nil
	}

	fmt.Printf("%-16s %-12s %-8s %s\n", "VERSION", "UPDATED", "ACTIVE", "CATEGORIES")
	for _, info := range versions {
		active := ""
		if info.IsActive {
			active = "yes"
		}
		fmt.Printf("%-16s %-12s %-8s %d\n",
			info.Version, info.LastUpdated.Format("2006-01-02"), active, info.CategoryCount)
	}
	return nil
}

func runDelete(ctx context.Context, logger *logrus.Logger, args []string) error {
	flags := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := flags.String("config", "", "path to deployment.yaml")
	flags.Parse(args)

	if flags.NArg() != 1 {
		return fmt.Errorf("usage: policyctl delete <version>")
	}

	policyService, closeFn, err := openServices(ctx, logger, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	return policyService.Delete(ctx, flags.Arg(0))
}
