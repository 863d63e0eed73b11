package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sre-norns/glance/pkg/checks"
	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/probers/browser"
)

type ListCmd struct {
	Probs bool `help:"List prob kinds compiled into this binary instead of the built-in checks"`
}

func (c *ListCmd) newTable(cfg *commandContext, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cfg.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func (c *ListCmd) listProbs(cfg *commandContext) error {
	t := c.newTable(cfg, table.Row{"Kind", "Version", "Produces", "Description"})
	for _, kind := range prob.ListProbs() {
		info, ok := prob.FindProb(kind)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{kind, info.Version, strings.Join(info.Produce, ","), info.Description})
	}

	t.Render()
	return nil
}

func (c *ListCmd) Run(cfg *commandContext) error {
	if c.Probs {
		return c.listProbs(cfg)
	}

	all, err := checks.List()
	if err != nil {
		return err
	}

	t := c.newTable(cfg, table.Row{"Name", "Kind", "Target", "Output", "Description"})
	for _, check := range all {
		manifest, err := checks.ProbOf(check)
		if err != nil {
			return err
		}

		var target, output string
		if spec, ok := manifest.Spec.(*browser.Spec); ok {
			target, output = spec.Target, spec.Output
		}

		description := ""
		if spec, ok := check.Spec.(*checks.Spec); ok {
			description = spec.Description
		}

		t.AppendRow(table.Row{check.Metadata.Name, manifest.Kind, target, output, description})
	}

	t.Render()
	return nil
}
