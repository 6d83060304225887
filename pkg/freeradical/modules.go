package freeradical

import (
	"context"
	"encoding/json"
	"net/http"
)

// Module is a content block owned by a page. FieldConfig is decoded into the
// variant matching FieldType.
type Module struct {
	UUID        string
	PageUUID    string
	Title       string
	Content     string
	FieldType   FieldType
	FieldConfig *FieldConfig
	Validation  *ValidationRules
}

type moduleWire struct {
	UUID        string           `json:"uuid"`
	PageUUID    string           `json:"page_uuid"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	FieldType   FieldType        `json:"field_type,omitempty"`
	FieldConfig json.RawMessage  `json:"field_config,omitempty"`
	Validation  *ValidationRules `json:"validation_rules,omitempty"`
}

func (m *Module) UnmarshalJSON(data []byte) error {
	var w moduleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Module{
		UUID:        w.UUID,
		PageUUID:    w.PageUUID,
		Title:       w.Title,
		Content:     w.Content,
		FieldType:   w.FieldType,
		FieldConfig: decodeFieldConfig(w.FieldType, w.FieldConfig),
		Validation:  w.Validation,
	}
	return nil
}

func (m Module) MarshalJSON() ([]byte, error) {
	cfg, err := encodeFieldConfig(m.FieldConfig)
	if err != nil {
		return nil, err
	}
	return json.Marshal(moduleWire{
		UUID:        m.UUID,
		PageUUID:    m.PageUUID,
		Title:       m.Title,
		Content:     m.Content,
		FieldType:   resolveFieldType(m.FieldType, m.FieldConfig),
		FieldConfig: cfg,
		Validation:  m.Validation,
	})
}

type CreateModuleInput struct {
	PageUUID    string
	Title       string
	Content     string
	FieldType   FieldType
	FieldConfig *FieldConfig
	Validation  *ValidationRules
}

func (in CreateModuleInput) MarshalJSON() ([]byte, error) {
	cfg, err := encodeFieldConfig(in.FieldConfig)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		PageUUID    string           `json:"page_uuid"`
		Title       string           `json:"title"`
		Content     string           `json:"content"`
		FieldType   FieldType        `json:"field_type,omitempty"`
		FieldConfig json.RawMessage  `json:"field_config,omitempty"`
		Validation  *ValidationRules `json:"validation_rules,omitempty"`
	}{in.PageUUID, in.Title, in.Content, resolveFieldType(in.FieldType, in.FieldConfig), cfg, in.Validation})
}

// UpdateModuleInput is a partial update; nil fields are not sent.
type UpdateModuleInput struct {
	PageUUID    *string
	Title       *string
	Content     *string
	FieldType   *FieldType
	FieldConfig *FieldConfig
	Validation  *ValidationRules
}

func (in UpdateModuleInput) MarshalJSON() ([]byte, error) {
	cfg, err := encodeFieldConfig(in.FieldConfig)
	if err != nil {
		return nil, err
	}
	fieldType := in.FieldType
	if fieldType == nil && in.FieldConfig != nil && in.FieldConfig.Type != "" {
		fieldType = &in.FieldConfig.Type
	}
	return json.Marshal(struct {
		PageUUID    *string          `json:"page_uuid,omitempty"`
		Title       *string          `json:"title,omitempty"`
		Content     *string          `json:"content,omitempty"`
		FieldType   *FieldType       `json:"field_type,omitempty"`
		FieldConfig json.RawMessage  `json:"field_config,omitempty"`
		Validation  *ValidationRules `json:"validation_rules,omitempty"`
	}{in.PageUUID, in.Title, in.Content, fieldType, cfg, in.Validation})
}

func encodeFieldConfig(cfg *FieldConfig) (json.RawMessage, error) {
	if cfg == nil {
		return nil, nil
	}
	raw, err := cfg.MarshalJSON()
	if err != nil || string(raw) == "null" {
		return nil, err
	}
	return raw, nil
}

func resolveFieldType(t FieldType, cfg *FieldConfig) FieldType {
	if t == "" && cfg != nil {
		return cfg.Type
	}
	return t
}

// ModuleListOptions narrow ListModules to one page and/or one result page.
type ModuleListOptions struct {
	PageUUID string
	PaginationOptions
}

func (c *Client) ListModules(ctx context.Context, opts *ModuleListOptions) ([]Module, error) {
	var q query
	if opts != nil {
		if opts.PageUUID != "" {
			q = q.add("page_uuid", opts.PageUUID)
		}
		q = opts.PaginationOptions.apply(q)
	}
	body, err := c.get(ctx, "/api/modules", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Module](body, "modules")
}

func (c *Client) GetModule(ctx context.Context, uuid string) (*Module, error) {
	body, err := c.get(ctx, "/api/modules/{id}", nil, idParam(uuid))
	if err != nil {
		return nil, err
	}
	return decodeOne[Module](body)
}

func (c *Client) CreateModule(ctx context.Context, input CreateModuleInput) (*Module, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/modules", nil, input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Module](body)
}

func (c *Client) UpdateModule(ctx context.Context, uuid string, input UpdateModuleInput) (*Module, error) {
	body, err := c.write(ctx, http.MethodPut, "/api/modules/{id}", idParam(uuid), input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Module](body)
}

func (c *Client) DeleteModule(ctx context.Context, uuid string) error {
	return c.remove(ctx, "/api/modules/{id}", idParam(uuid))
}
