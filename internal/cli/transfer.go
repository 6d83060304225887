package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"freeradical-go/pkg/freeradical"

	"github.com/spf13/cobra"
)

const (
	resourcePages   = "pages"
	resourceModules = "modules"
	resourceMedia   = "media"
)

var errMediaImport = errors.New("media records carry no file content, upload the files instead")

func (a *App) exportCommand() *cobra.Command {
	var resource, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export pages, modules or media to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.info("Exporting %s to %s", resource, output)
			items, count, err := a.fetchAll(cmd.Context(), resource)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return err
			}
			a.success("Exported %d %s to %s", count, resource, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&resource, "resource", "r", resourcePages, "pages, modules or media")
	cmd.Flags().StringVarP(&output, "output", "o", "export.json", "output file")
	return cmd
}

func (a *App) fetchAll(ctx context.Context, resource string) (any, int, error) {
	client := a.client()
	switch resource {
	case resourcePages:
		items, err := client.ListPages(ctx, nil)
		return items, len(items), err
	case resourceModules:
		items, err := client.ListModules(ctx, nil)
		return items, len(items), err
	case resourceMedia:
		items, err := client.ListMedia(ctx, nil)
		return items, len(items), err
	}
	return nil, 0, fmt.Errorf("unknown resource %q (valid: pages, modules, media)", resource)
}

func (a *App) importCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create pages and modules from an exported JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			records, err := readRecords(data)
			if err != nil {
				return err
			}
			a.info("Importing %s from %s", plural(len(records), "record"), file)
			imported := 0
			for i, raw := range records {
				kind := detectResource(raw)
				if err := a.importRecord(cmd.Context(), kind, raw); err != nil {
					a.warn("Record %d (%s) failed: %v", i, kind, err)
					continue
				}
				imported++
			}
			if imported < len(records) {
				return fmt.Errorf("imported %d of %d records", imported, len(records))
			}
			a.success("Imported %s", plural(imported, "record"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readRecords accepts a bare array or an object wrapping one, e.g.
// {"pages": [...]}.
func readRecords(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, errors.New("expected a JSON array or an object holding one")
	}
	for _, key := range []string{resourcePages, resourceModules, resourceMedia, "items", "data"} {
		if raw, ok := wrapped[key]; ok {
			if err := json.Unmarshal(raw, &records); err == nil {
				return records, nil
			}
		}
	}
	for _, raw := range wrapped {
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, nil
		}
	}
	return nil, errors.New("no array of records found")
}

// detectResource decides which collection a record belongs to from the keys
// it carries. Anything unrecognised is treated as a page.
func detectResource(raw json.RawMessage) string {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return resourcePages
	}
	has := func(key string) bool {
		_, ok := keys[key]
		return ok
	}
	switch {
	case has("page_title") || has("pageTitle"):
		return resourcePages
	case has("page_uuid") && has("title"):
		return resourceModules
	case has("filename"):
		return resourceMedia
	}
	return resourcePages
}

func (a *App) importRecord(ctx context.Context, kind string, raw json.RawMessage) error {
	client := a.client()
	switch kind {
	case resourceModules:
		var m freeradical.Module
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		_, err := client.CreateModule(ctx, freeradical.CreateModuleInput{
			PageUUID:    m.PageUUID,
			Title:       m.Title,
			Content:     m.Content,
			FieldType:   m.FieldType,
			FieldConfig: m.FieldConfig,
			Validation:  m.Validation,
		})
		return err
	case resourceMedia:
		return errMediaImport
	}
	var in freeradical.CreatePageInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	_, err := client.CreatePage(ctx, in)
	return err
}
