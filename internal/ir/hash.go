package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCompilation = "wherec/compilation/v1"
	DomainStatement   = "wherec/statement/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CompilationID identifies one compilation request: the dialect, the model
// name ("" when compiled without a model) and the filter description.
// Equal requests always get the same ID.
func CompilationID(dialect, model, filter string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"dialect": dialect,
		"model":   model,
		"filter":  filter,
	})
	if err != nil {
		return "", fmt.Errorf("CompilationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCompilation, canonical), nil
}

// StatementFingerprint identifies compiled output: SQL text plus bind args.
func StatementFingerprint(sql string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"sql":  sql,
		"args": args,
	})
	if err != nil {
		return "", fmt.Errorf("StatementFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}
