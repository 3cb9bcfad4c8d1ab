package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/artpar/formgate/adapters/clock"
	"github.com/artpar/formgate/adapters/idgen"
	"github.com/artpar/formgate/app"
	"github.com/artpar/formgate/bootstrap"
	"github.com/artpar/formgate/config"
	"github.com/artpar/formgate/pkg/formjson"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Manage stored forms",
	Long: `Manage forms directly on the configured store.

Examples:
  formgate forms list
  formgate forms get <form-id>
  formgate forms export <form-id> -o signup.json
  formgate forms import 'forms/**/*.json'
  formgate forms validate <form-id>
  formgate forms delete <form-id>`,
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all forms",
	RunE:  runFormsList,
}

var formsGetCmd = &cobra.Command{
	Use:   "get <form-id>",
	Short: "Show form details",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormsGet,
}

var formsExportCmd = &cobra.Command{
	Use:   "export <form-id>",
	Short: "Write a form document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormsExport,
}

var formsImportCmd = &cobra.Command{
	Use:   "import <glob>...",
	Short: "Import form documents matching glob patterns (** supported)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFormsImport,
}

var formsValidateCmd = &cobra.Command{
	Use:   "validate <form-id>",
	Short: "Check every field of a form",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormsValidate,
}

var formsDeleteCmd = &cobra.Command{
	Use:   "delete <form-id>",
	Short: "Delete a form",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormsDelete,
}

var exportOutput string

func init() {
	rootCmd.AddCommand(formsCmd)

	formsCmd.AddCommand(formsListCmd)
	formsCmd.AddCommand(formsGetCmd)
	formsCmd.AddCommand(formsExportCmd)
	formsCmd.AddCommand(formsImportCmd)
	formsCmd.AddCommand(formsValidateCmd)
	formsCmd.AddCommand(formsDeleteCmd)

	formsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
}

// openService opens the configured store and publisher behind a form
// service. The returned function closes both.
func openService(ctx context.Context) (*app.FormService, func(), error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	ids := idgen.UUID{}
	store, err := bootstrap.OpenStore(ctx, cfg, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	pub, err := bootstrap.OpenPublisher(cfg)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open event publisher: %w", err)
	}

	svc := app.NewFormService(store, pub, clock.Real{}, ids, nil, quietLogger())
	return svc, func() {
		pub.Close()
		store.Close()
	}, nil
}

func runFormsList(cmd *cobra.Command, args []string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	forms, err := svc.ListForms(cmd.Context())
	if err != nil {
		return fmt.Errorf("list forms: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(forms) == 0 {
		fmt.Fprintln(out, "No forms found.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Import forms with: formgate forms import 'forms/*.json'")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSECTIONS\tFIELDS\tUPDATED")
	fmt.Fprintln(w, "--\t----\t--------\t------\t-------")
	for _, f := range forms {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			f.ID, f.Name, f.Sections, f.Fields, f.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runFormsGet(cmd *cobra.Command, args []string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	f, err := svc.GetForm(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", f.ID)
	fmt.Fprintf(out, "Name:     %s\n", f.Name)
	fmt.Fprintf(out, "Created:  %s\n", f.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Updated:  %s\n", f.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Valid:    %v\n", f.IsValid())

	for _, sec := range f.Sections() {
		fmt.Fprintf(out, "\nSection %s\n", sec.ID())
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  FIELD\tTYPE\tREQUIRED\tVISIBLE\tVALID\tDEPENDS ON")
		for _, fld := range sec.Fields() {
			parent := ""
			if dep, ok := sec.Dependency(fld.ID()); ok {
				parent = fmt.Sprintf("%s = %v", dep.ParentID, dep.ParentValue)
			}
			fmt.Fprintf(w, "  %s\t%s\t%v\t%v\t%v\t%s\n",
				fld.ID(), fld.Type(), fld.Required(), fld.Visible(), fld.IsValid(), parent)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func runFormsExport(cmd *cobra.Command, args []string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	f, err := svc.GetForm(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	doc, err := formjson.EncodeForm(f)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %s to %s\n", checkMark, f.ID, exportOutput)
	return nil
}

func runFormsImport(cmd *cobra.Command, args []string) error {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range args {
		if !doublestar.ValidatePathPattern(pattern) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %v", args)
	}
	sort.Strings(files)

	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	out := cmd.OutOrStdout()
	var failed int
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", crossMark, path, err)
			continue
		}
		f, err := formjson.UnmarshalForm(data)
		if err == nil {
			err = svc.ImportForm(cmd.Context(), f)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", crossMark, path, err)
			continue
		}
		fmt.Fprintf(out, "%s %s -> %s\n", checkMark, path, f.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}
	return nil
}

func runFormsValidate(cmd *cobra.Command, args []string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	v, err := svc.Validity(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if v.Valid {
		fmt.Fprintf(out, "%s Form %s is valid\n", checkMark, v.FormID)
		return nil
	}

	sections := make([]string, 0, len(v.InvalidFields))
	for id := range v.InvalidFields {
		sections = append(sections, id)
	}
	sort.Strings(sections)
	fmt.Fprintf(out, "%s Form %s is invalid\n", crossMark, v.FormID)
	for _, id := range sections {
		for _, field := range v.InvalidFields[id] {
			fmt.Fprintf(out, "  %s.%s\n", id, field)
		}
	}
	return fmt.Errorf("form %s is invalid", v.FormID)
}

func runFormsDelete(cmd *cobra.Command, args []string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	if err := svc.DeleteForm(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted form %s\n", checkMark, args[0])
	return nil
}
