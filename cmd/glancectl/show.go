package main

import (
	"github.com/sre-norns/glance/pkg/checks"
)

type ShowCmd struct {
	Name string `help:"Name of the built-in check" arg:"" name:"check"`
}

func (c *ShowCmd) Run(cfg *commandContext) error {
	check, err := checks.Load(c.Name)
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(&check)
}
