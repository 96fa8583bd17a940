package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/fundsheet/internal/config"
	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/JonMunkholm/fundsheet/internal/logging"
	"github.com/JonMunkholm/fundsheet/internal/sheet"
	"github.com/JonMunkholm/fundsheet/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// sourceCLI tags operations started from the command line in core logs.
const sourceCLI = "cli"

// loadEnvFile loads path when it exists. Variables already set in the
// environment win.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot load %s: %v\n", path, err)
	}
}

// withService loads configuration, opens the store and runs fn with a
// service over it. Logs go to stderr so stdout stays machine-readable.
func withService(ctx context.Context, fn func(ctx context.Context, svc *core.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	st, closeStore, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer closeStore()

	svc := core.NewService(st, sheet.New(), cfg.ServiceOptions())
	return fn(core.ContextWithSource(ctx, sourceCLI), svc)
}

// userError renders err the way API clients see it.
func userError(err error) error {
	if core.IsCallerError(err) {
		return err
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the records table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *core.Service) error {
				if err := svc.Init(ctx); err != nil {
					return userError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "records table ready")
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>...",
		Short: "Ingest one or more workbooks",
		Long: `Ingest workbooks row by row. Rows are inserted one at a time without a
transaction; when a row fails the import stops and reports how many rows of
that file were stored. Files are never deleted.

Example: fundsheet import companies.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *core.Service) error {
				if err := svc.Init(ctx); err != nil {
					return userError(err)
				}
				for _, path := range args {
					res, err := svc.ImportFile(ctx, path)
					if err != nil {
						if res != nil {
							fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d rows inserted before failure\n", path, res.Inserted, res.Rows)
						}
						return userError(err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows inserted (upload %s)\n", path, res.Inserted, res.ID)
				}
				return nil
			})
		},
	}
}

// searchFlags maps CLI flags to search criteria keys.
var searchFlags = []struct {
	flag, field, usage string
}{
	{"organization-name", "organization_name", "Organization names, comma or newline separated"},
	{"website", "website", "Websites, whitespace separated"},
	{"number-of-employees", "number_of_employees", `Employee ranges such as "1001-5000" or "10001+"`},
	{"contact-name", "contact_name", "Contact names, comma or newline separated"},
	{"contact-title", "contact_title", "Contact titles, comma or newline separated"},
	{"linkedin-url", "linkedin_url", "LinkedIn URLs, whitespace separated"},
}

func newSearchCmd() *cobra.Command {
	values := make([]string, len(searchFlags))

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print records matching any of the given filters as JSON",
		Long: `Print the distinct records matching ANY of the given filters.

Example: fundsheet search --organization-name "Acme, Globex" --number-of-employees 10001+`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria := core.SearchCriteria{}
			for i, f := range searchFlags {
				if values[i] != "" {
					criteria[f.field] = core.TextValue(values[i])
				}
			}

			return withService(cmd.Context(), func(ctx context.Context, svc *core.Service) error {
				records, err := svc.Search(ctx, criteria)
				if err != nil {
					return userError(err)
				}
				if len(records) == 0 {
					slog.Info("no data found for the specified search criteria")
				}
				return writeRecords(cmd.OutOrStdout(), records)
			})
		},
	}

	for i, f := range searchFlags {
		cmd.Flags().StringVar(&values[i], f.flag, "", f.usage)
	}
	return cmd
}

func writeRecords(w io.Writer, records []core.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"data": records})
}

func newExportCmd() *cobra.Command {
	var out, organizationName, website string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records matching an organization name or website to a workbook",
		Long: `Write the records matching the organization name OR website filters to an
xlsx workbook. At least one filter is required.

Example: fundsheet export --organization-name Acme --out acme.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria := core.ExportCriteria(organizationName, website)

			return withService(cmd.Context(), func(ctx context.Context, svc *core.Service) error {
				err := svc.Export(ctx, criteria, func(f *os.File) error {
					return copyToFile(out, f)
				})
				if err != nil {
					return userError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "exported_data.xlsx", "Output workbook path")
	cmd.Flags().StringVar(&organizationName, "organization-name", "", "Organization names, comma or newline separated")
	cmd.Flags().StringVar(&website, "website", "", "Websites, whitespace separated")
	return cmd
}

func copyToFile(path string, src io.Reader) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
