package freeradical

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleDecodesFieldConfigByType(t *testing.T) {
	var m Module
	require.NoError(t, json.Unmarshal([]byte(`{
		"uuid":"m-1","page_uuid":"p-1","title":"Colour","content":"red",
		"field_type":"select",
		"field_config":{"options":["red",{"value":"blue","label":"Blue"}]},
		"validation_rules":{"required":true,"allowed_values":["red","blue"],"custom":1}
	}`), &m))
	assert.Equal(t, FieldSelect, m.FieldType)
	require.NotNil(t, m.FieldConfig)
	require.NotNil(t, m.FieldConfig.Choice)
	assert.Equal(t, []ChoiceOption{{Value: "red", Label: "red"}, {Value: "blue", Label: "Blue"}}, m.FieldConfig.Choice.Options)
	require.NotNil(t, m.Validation)
	require.NotNil(t, m.Validation.Required)
	assert.True(t, *m.Validation.Required)
	assert.Equal(t, []string{"red", "blue"}, m.Validation.AllowedValues)
	assert.JSONEq(t, `1`, string(m.Validation.Extra["custom"]))

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"uuid":"m-1","page_uuid":"p-1","title":"Colour","content":"red",
		"field_type":"select",
		"field_config":{"options":[{"value":"red","label":"red"},{"value":"blue","label":"Blue"}]},
		"validation_rules":{"required":true,"allowed_values":["red","blue"],"custom":1}
	}`, string(out))
}

func TestFieldConfigVariants(t *testing.T) {
	number := decodeFieldConfig(FieldNumber, json.RawMessage(`{"min":0,"max":10,"step":0.5,"unit":"kg"}`))
	require.NotNil(t, number.Number)
	assert.Equal(t, 10.0, *number.Number.Max)
	assert.Equal(t, "kg", number.Number.Unit)

	text := decodeFieldConfig(FieldTextarea, json.RawMessage(`"{\"rows\":4}"`))
	require.NotNil(t, text.Text)
	assert.Equal(t, 4, text.Text.Rows)

	ref := decodeFieldConfig(FieldFileReference, json.RawMessage(`{"accept":["image/*"],"multiple":true}`))
	require.NotNil(t, ref.Reference)
	assert.True(t, ref.Reference.Multiple)

	raw := decodeFieldConfig(FieldJSON, json.RawMessage(`{"schema":"x"}`))
	assert.Nil(t, raw.Text)
	assert.JSONEq(t, `{"schema":"x"}`, string(raw.Raw))

	mismatched := decodeFieldConfig(FieldNumber, json.RawMessage(`{"min":"zero"}`))
	assert.Nil(t, mismatched.Number)
	assert.JSONEq(t, `{"min":"zero"}`, string(mismatched.Raw))

	assert.Nil(t, decodeFieldConfig(FieldText, nil))
	assert.Nil(t, decodeFieldConfig(FieldText, json.RawMessage(`null`)))
}

func TestCreateModuleInputTakesTypeFromConfig(t *testing.T) {
	in := CreateModuleInput{
		PageUUID:    "p-1",
		Title:       "Size",
		Content:     "3",
		FieldConfig: ChoiceField(FieldMultiSelect, ChoiceOption{Value: "s"}, ChoiceOption{Value: "m", Label: "Medium"}),
	}
	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"page_uuid":"p-1","title":"Size","content":"3","field_type":"multi_select",
		"field_config":{"options":[{"value":"s"},{"value":"m","label":"Medium"}]}
	}`, string(out))

	plain, err := json.Marshal(CreateModuleInput{PageUUID: "p-1", Title: "Body"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page_uuid":"p-1","title":"Body","content":""}`, string(plain))
}

func TestUpdateModuleInputSendsOnlySetFields(t *testing.T) {
	content := "new"
	out, err := json.Marshal(UpdateModuleInput{Content: &content})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"new"}`, string(out))

	limit := 9.0
	out, err = json.Marshal(UpdateModuleInput{FieldConfig: NumberField(NumberConfig{Max: &limit})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field_type":"number","field_config":{"max":9}}`, string(out))
}

func TestValidationRulesFromStringBlob(t *testing.T) {
	var rules ValidationRules
	require.NoError(t, json.Unmarshal([]byte(`"{\"min_length\":2}"`), &rules))
	require.NotNil(t, rules.MinLength)
	assert.Equal(t, 2, *rules.MinLength)
	assert.Nil(t, rules.Extra)

	out, err := json.Marshal(rules)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_length":2}`, string(out))
}

func TestTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	for _, raw := range []string{
		`"2024-03-05T10:30:00Z"`,
		`"2024-03-05T12:30:00+02:00"`,
		`"2024-03-05T10:30:00"`,
		`"2024-03-05 10:30:00"`,
		`"2024-03-05 10:30:00+00:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), raw)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	out, err := json.Marshal(Timestamp{Time: want})
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05T10:30:00Z"`, string(out))
	out, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`["a-1", 42, null]`), &ids))
	assert.Equal(t, []ID{"a-1", "42", ""}, ids)
	n, err := ids[1].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Error(t, json.Unmarshal([]byte(`{}`), &ids[0]))
}
