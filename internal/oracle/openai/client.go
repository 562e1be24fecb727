package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/llm"
	"github.com/freightdocs/invoice-matcher/internal/oracle"
)

// Judge implements oracle.Judge using an OpenAI-compatible chat completion.
// The model receives the full normalized record pair plus the precomputed
// evidence bundle and must answer in the verdict schema; a response that
// fails strict validation gets one lenient sanitize pass before rejection.
func (c *Client) Judge(ctx context.Context, req oracle.JudgeRequest) (oracle.Verdict, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	c.logger.Info("oracle.judge.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"header_fields", len(req.Evidence.HeaderResults),
		"item_candidates", len(req.Evidence.ItemCandidates),
	)

	user, err := buildUserPrompt(req)
	if err != nil {
		return oracle.Verdict{}, fmt.Errorf("build judge prompt: %w", err)
	}

	content, _, err := llm.ChatCompletion(ctx, c.http, llm.ChatRequest{
		BaseURL:     c.cfg.BaseURL,
		APIKey:      c.cfg.APIKey,
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{Role: "system", Content: "JSON Schema:\n" + mustJSON(c.schemaMap)},
		},
	}, c.logger)
	if err != nil {
		c.logger.Error("oracle.judge.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return oracle.Verdict{}, err
	}

	rawContent := []byte(content)
	if err := llm.ValidateJSON(c.schema, rawContent); err != nil {
		cleaned, repaired, sErr := oracle.SanitizeVerdict(rawContent)
		if sErr != nil {
			c.logger.Error("oracle.judge.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return oracle.Verdict{}, fmt.Errorf("verdict sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSON(c.schema, cleaned); vErr != nil {
			c.logger.Error("oracle.judge.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return oracle.Verdict{}, fmt.Errorf("verdict schema validation failed: %w", vErr)
		}
		c.logger.Warn("oracle.judge.lenient_sanitize_applied",
			"req_id", rid, "repaired", repaired,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var verdict oracle.Verdict
	if err := json.Unmarshal(rawContent, &verdict); err != nil {
		return oracle.Verdict{}, fmt.Errorf("unmarshal verdict: %w", err)
	}

	c.logger.Info("oracle.judge.ok",
		"req_id", rid,
		"status", verdict.Status,
		"field_entries", len(verdict.FieldLevelComparison),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return verdict, nil
}

const systemPrompt = `You are an expert financial auditor. Your task is to compare data extracted from a supplier invoice against the internal purchase records.

You have access to:
1. Extracted invoice data.
2. Internal reference data.
3. Precomputed evidence: deterministic header results and fuzzy match scores for line items.

RULES:
1. Header check. Compare the following fields when present on both sides:
   - Supplier name: allow minor variations like "Inc" vs "Incorporated".
   - Supplier invoice number and job reference: require exact matches.
   - Dates: compare after standardizing the format.
   - Customer name: the bill-to entity must match the reference customer.
   - Currency: codes must match.
   - Total amount: allow a rounding difference up to 0.05.
2. Line item check (hybrid approach):
   - Treat a fuzzy score above 80 as strong evidence of identity, but use judgment based on context.
   - If the fuzzy score is high and the amounts match, the item is a MATCH.
   - If the fuzzy score is low but the descriptions are semantically equivalent (synonyms, reordered words), the item can still be a MATCH.
   - For each matched item compare description, quantity and amount.
3. Analysis:
   - Status is MATCH only when all amounts match within tolerance and every line item is accounted for.
   - Any discrepancy in amounts or unidentified item makes the status MISMATCH.
   - For each field or item, say explicitly whether you relied on the fuzzy score or on semantic reasoning.
4. Output: return the result in the specified JSON structure only.`

func buildUserPrompt(req oracle.JudgeRequest) (string, error) {
	extracted, err := json.MarshalIndent(req.Extracted, "", "  ")
	if err != nil {
		return "", err
	}
	reference, err := json.MarshalIndent(req.Reference, "", "  ")
	if err != nil {
		return "", err
	}
	evidence, err := json.MarshalIndent(req.Evidence, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Extracted invoice data:\n")
	b.Write(extracted)
	b.WriteString("\n\nInternal reference data:\n")
	b.Write(reference)
	b.WriteString("\n\nPrecomputed evidence:\n")
	b.Write(evidence)
	b.WriteString("\n\nCompare them and provide the status, analysis and field_level_comparison.")
	return b.String(), nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
