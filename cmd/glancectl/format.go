package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type formatter func(any) error

func yamlFormatter(w io.Writer) formatter {
	return func(resource any) error {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(resource); err != nil {
			return err
		}

		return encoder.Close()
	}
}

func jsonFormatter(w io.Writer) formatter {
	return func(resource any) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "\t")

		return encoder.Encode(resource)
	}
}

func getFormatter(formatName outputFormat, w io.Writer) (formatter, error) {
	switch formatName {
	case "yaml", "yml":
		return yamlFormatter(w), nil
	case "json":
		return jsonFormatter(w), nil
	}

	return nil, fmt.Errorf("unexpected output format %q", formatName)
}
