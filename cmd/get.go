package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eve/internal/formatting"
	"eve/internal/resources"
)

var (
	getXML    bool
	getSearch string
	getUDID   string
)

// getCmd lists resource kinds, lists one kind, or fetches a single resource.
var getCmd = &cobra.Command{
	Use:   "get [KIND] [ID]",
	Short: "Show resources",
	Long: `Show resources from the API server.

Without arguments the supported kinds are listed. With a kind every resource
of that kind is listed, and with a kind and an id the full record is printed.`,
	Example: `  eve get
  eve get policies
  eve get policy 42 --xml
  eve get computers --search "lab-*"
  eve get computers --udid 55900BDC-347C-58B1-D249-F32244B11D30`,
	Args: cobra.MaximumNArgs(2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listKinds(cmd)
	}
	kind, err := resources.LookupKind(args[0])
	if err != nil {
		return err
	}
	if getXML && kind.Name != "policies" {
		return fmt.Errorf("--xml is only available for policies")
	}
	if (getSearch != "" || getUDID != "") && kind.Name != "computers" {
		return fmt.Errorf("--search and --udid are only available for computers")
	}

	rt, session, err := openSession(cmd)
	if err != nil {
		return err
	}
	client := rt.Client(session)
	ctx := cmd.Context()

	switch {
	case getUDID != "":
		body, err := client.GetComputerByUDID(ctx, getUDID)
		if err != nil {
			return rt.Fail(session, err)
		}
		return rt.Formatter().FormatDocument(body)
	case getSearch != "":
		rows, err := client.SearchComputers(ctx, getSearch)
		if err != nil {
			return rt.Fail(session, err)
		}
		return rt.Formatter().FormatTable(summaryTable(kind.Name, rows))
	case len(args) == 1:
		if kind.List == nil {
			return kind.Unsupported("list")
		}
		rows, err := kind.List(ctx, client)
		if err != nil {
			return rt.Fail(session, err)
		}
		return rt.Formatter().FormatTable(summaryTable(kind.Name, rows))
	case getXML:
		body, err := client.GetPolicyXML(ctx, args[1])
		if err != nil {
			return rt.Fail(session, err)
		}
		return rt.Formatter().FormatDocument(body)
	default:
		if kind.Get == nil {
			return kind.Unsupported("get")
		}
		body, err := kind.Get(ctx, client, args[1])
		if err != nil {
			return rt.Fail(session, err)
		}
		return rt.Formatter().FormatDocument(body)
	}
}

func summaryTable(title string, rows []resources.Summary) formatting.Table {
	t := formatting.Table{Title: title, Headers: []string{"ID", "NAME"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{string(r.ID), r.Name})
	}
	return t
}

func listKinds(cmd *cobra.Command) error {
	format, err := formatting.ParseFormat(globalFlags.OutputFormat)
	if err != nil {
		return err
	}
	f := formatting.New(formatting.Options{
		Format: format,
		Quiet:  globalFlags.Quiet,
		Color:  format == formatting.FormatTable,
		Out:    cmd.OutOrStdout(),
	})

	t := formatting.Table{Title: "kinds", Headers: []string{"KIND", "ALIASES", "OPERATIONS", "DESCRIPTION"}}
	for _, k := range resources.Kinds() {
		t.Rows = append(t.Rows, []any{k.Name, strings.Join(k.Aliases, ","), strings.Join(k.Operations(), ","), k.Description})
	}
	return f.FormatTable(t)
}

func init() {
	getCmd.Flags().BoolVar(&getXML, "xml", false, "Print the policy's XML definition")
	getCmd.Flags().StringVar(&getSearch, "search", "", "Search computers by name, serial number or user")
	getCmd.Flags().StringVar(&getUDID, "udid", "", "Fetch the computer with this UDID")
	registerSessionFlags(getCmd)
	rootCmd.AddCommand(getCmd)
}
