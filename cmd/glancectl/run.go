package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/sre-norns/glance/pkg/checks"
	"github.com/sre-norns/glance/pkg/prob"
	"github.com/sre-norns/glance/pkg/runner"
	"github.com/sre-norns/glance/pkg/wyrd"
)

type RunCmd struct {
	Checks []string `help:"Names of the built-in checks to run. All built-in checks run when none is given" name:"check" arg:"" optional:""`
	Files  []string `help:"A manifest file with checks to run, '-' for STDIN" name:"file" short:"f"`

	SaveLog     bool `help:"Save the log of each run as <check>.log in the working directory"`
	SaveMetrics bool `help:"Save metrics of each run as <check>.prom in the working directory"`
}

func (c *RunCmd) selectChecks() ([]checks.Check, error) {
	if len(c.Checks) != 0 && len(c.Files) != 0 {
		return nil, fmt.Errorf("either check names or manifest files can be given, but not both")
	}

	if len(c.Files) != 0 {
		var result []checks.Check
		for _, filename := range c.Files {
			loaded, err := checks.FromFile(filename)
			if err != nil {
				return nil, err
			}
			result = append(result, loaded...)
		}
		return result, nil
	}

	if len(c.Checks) == 0 {
		return checks.List()
	}

	result := make([]checks.Check, 0, len(c.Checks))
	for _, name := range c.Checks {
		check, err := checks.Load(name)
		if err != nil {
			return nil, err
		}
		result = append(result, check)
	}

	return result, nil
}

func labelsKeyvals(labels wyrd.Labels) []any {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	keyvals := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		keyvals = append(keyvals, k, labels[k])
	}
	return keyvals
}

func (c *RunCmd) runCheck(cfg *commandContext, check checks.Check) error {
	name := check.Metadata.Name
	manifest, err := checks.ProbOf(check)
	if err != nil {
		return err
	}

	logger := log.With(cfg.Logger, "check", name)
	labels := wyrd.MergeLabels(cfg.GetEffectiveLabels(), check.Metadata.Labels)
	_ = level.Debug(logger).Log(append([]any{"msg", "check labels"}, labelsKeyvals(labels)...)...)

	timeout := cfg.EffectiveTimeout(manifest.Timeout)
	ctx, cancel := context.WithTimeout(cfg.Context, timeout)
	defer cancel()

	_ = level.Info(logger).Log("msg", "running check", "kind", manifest.Kind, "timeout", timeout)
	status, artifacts, runErr := runner.Play(ctx, manifest, cfg.RunOptions(), logger)
	_ = level.Info(logger).Log("msg", "check finished", "status", status, "artifacts", len(artifacts))

	if err := c.saveArtifacts(cfg.WorkingDirectory, name, artifacts, logger); err != nil {
		return errors.Join(runErr, err)
	}

	if runErr != nil {
		return fmt.Errorf("check %q %s: %w", name, status, runErr)
	}

	return nil
}

func (c *RunCmd) artifactFilename(checkName string, artifact prob.Artifact) (string, bool) {
	switch artifact.Rel {
	case prob.RelScreenshot:
		return artifact.Name, artifact.Name != ""
	case prob.RelLog:
		return checkName + ".log", c.SaveLog
	case prob.RelMetrics:
		return checkName + ".prom", c.SaveMetrics
	}

	return "", false
}

func (c *RunCmd) saveArtifacts(workingDir, checkName string, artifacts []prob.Artifact, logger log.Logger) error {
	for _, artifact := range artifacts {
		filename, ok := c.artifactFilename(checkName, artifact)
		if !ok {
			continue
		}
		if !filepath.IsAbs(filename) {
			filename = filepath.Join(workingDir, filename)
		}

		if err := writeFile(filename, artifact.Content); err != nil {
			return fmt.Errorf("failed to write %s artifact: %w", artifact.Rel, err)
		}
		_ = level.Info(logger).Log("msg", "artifact saved", "rel", artifact.Rel, "path", filename, "bytes", len(artifact.Content))
	}

	return nil
}

func writeFile(filename string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	return os.WriteFile(filename, content, 0o644)
}

func (c *RunCmd) Run(cfg *commandContext) error {
	selected, err := c.selectChecks()
	if err != nil {
		return err
	}

	for _, check := range selected {
		if err := c.runCheck(cfg, check); err != nil {
			return err
		}
	}

	return nil
}
