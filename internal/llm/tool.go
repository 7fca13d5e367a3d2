package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolName is the only tool declared to the model.
const ToolName = "process_customer_message"

const toolDescription = "Analyse the customer's Instagram message, extract any order details, and write the reply to send."

const toolSchemaURL = "https://rasaeel.local/schemas/process_customer_message.json"

// MaxOrderQuantity bounds a single order line.
const MaxOrderQuantity = 1000

// ErrParse wraps every failure to turn tool arguments into ToolArguments.
var ErrParse = errors.New("llm-parse-error")

// ToolDefinition is the provider-neutral tool declaration.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

func enumOf[T ~string](values []T) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

// nullable accepts JSON null for fields the model leaves blank mid-order.
func nullable(typ string) map[string]any {
	return map[string]any{"type": []any{typ, "null"}}
}

// ToolParameters returns the JSON schema for process_customer_message.
// Unknown properties are tolerated; missing required ones are not.
func ToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response_analysis": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"detected_language": map[string]any{"type": "string", "enum": enumOf(languages)},
					"customer_intent":   map[string]any{"type": "string", "enum": enumOf(intents)},
					"mentioned_products": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"requires_escalation": map[string]any{"type": "boolean"},
					"sentiment":           map[string]any{"type": "string", "enum": enumOf(sentiments)},
				},
				"required": []any{"detected_language", "customer_intent", "mentioned_products", "requires_escalation", "sentiment"},
			},
			"order_entities": map[string]any{
				"type":        "object",
				"description": "Only for order_placement.",
				"properties": map[string]any{
					"product_name":  nullable("string"),
					"quantity":      map[string]any{"type": []any{"integer", "null"}, "minimum": 1, "maximum": MaxOrderQuantity},
					"size":          nullable("string"),
					"color":         nullable("string"),
					"customer_name": nullable("string"),
					"phone_number":  nullable("string"),
					"address":       nullable("string"),
					"missing_info": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"order_ready": map[string]any{"type": "boolean"},
					"total_price": map[string]any{"type": []any{"number", "null"}, "minimum": 0},
				},
				"required": []any{"missing_info", "order_ready"},
			},
			"suggested_response": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"response_analysis", "suggested_response"},
	}
}

// Tool returns the declaration sent with every dispatch.
func Tool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolName,
		Description: toolDescription,
		Parameters:  ToolParameters(),
	}
}

// ArgumentParser validates raw tool arguments against the declared schema
// and decodes them.
type ArgumentParser struct {
	schema *jsonschema.Schema
}

func NewArgumentParser() (*ArgumentParser, error) {
	raw, err := json.Marshal(ToolParameters())
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(toolSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("tool schema load failed: %w", err)
	}
	compiled, err := c.Compile(toolSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("tool schema compile failed: %w", err)
	}
	return &ArgumentParser{schema: compiled}, nil
}

type toolArgumentsWire struct {
	ResponseAnalysis  ResponseAnalysis `json:"response_analysis"`
	OrderEntities     *OrderEntities   `json:"order_entities"`
	SuggestedResponse string           `json:"suggested_response"`
}

// Parse returns ErrParse for malformed JSON or schema violations.
func (p *ArgumentParser) Parse(raw []byte) (ToolArguments, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return ToolArguments{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := p.schema.Validate(doc); err != nil {
		return ToolArguments{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var wire toolArgumentsWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ToolArguments{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if strings.TrimSpace(wire.SuggestedResponse) == "" {
		return ToolArguments{}, fmt.Errorf("%w: empty suggested_response", ErrParse)
	}
	args := ToolArguments{
		Analysis:          wire.ResponseAnalysis,
		SuggestedResponse: strings.TrimSpace(wire.SuggestedResponse),
	}
	if args.Analysis.CustomerIntent == IntentOrderPlacement && wire.OrderEntities != nil {
		args.Order = wire.OrderEntities
	}
	return args, nil
}
