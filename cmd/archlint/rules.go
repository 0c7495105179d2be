package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/codewithboateng/archlint/internal/rulesdsl"
)

// rulesCmd prints the resolved rule catalog and its fingerprint.
func rulesCmd(args []string) int {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	pack := fs.String("rules", "", "User rule pack (YAML)")
	_ = fs.Parse(args)

	cfg, _, ok := loadConfig(*configPath)
	if !ok {
		return exitError
	}
	if *pack != "" {
		cfg.Rules.Pack = *pack
	}
	rc, _, err := rulesdsl.Load(cfg.Rules.Pack, settingsFrom(cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, "rules:", err)
		return exitError
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tLAYERS\tACTIVE\tCHECKS")
	for _, d := range rc.All() {
		layers := make([]string, 0, len(d.Layers))
		for _, l := range d.Layers {
			layers = append(layers, string(l))
		}
		checks := make([]string, 0, len(d.Strategies))
		for _, st := range d.Strategies {
			checks = append(checks, string(st.Kind()))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", d.ID, d.Severity, strings.Join(layers, ","), rc.Active(d.ID), strings.Join(checks, ","))
	}
	_ = tw.Flush()
	fmt.Printf("\n%d rules, %d active, fingerprint %s\n", len(rc.All()), len(rc.List()), rc.Fingerprint())
	return exitOK
}
