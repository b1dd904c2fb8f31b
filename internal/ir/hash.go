package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainDefinition = "workflow/definition/v1"
	DomainMarking    = "workflow/marking/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// definitionObject is the canonical shape of a Definition.
// Transition order is significant and kept; place order is not.
func definitionObject(d *Definition) map[string]any {
	places := make(map[string]any, len(d.places))
	for _, p := range d.places {
		places[p] = true
	}

	transitions := make([]any, len(d.transitions))
	for i, t := range d.transitions {
		transitions[i] = map[string]any{
			"name":  t.Name,
			"froms": append([]string(nil), t.Froms...),
			"tos":   append([]string(nil), t.Tos...),
		}
	}

	return map[string]any{
		"initial_place": d.initialPlace,
		"places":        places,
		"transitions":   transitions,
	}
}

// DefinitionHash fingerprints a Definition. Two definitions with the same
// place set, the same ordered transitions and the same initial place hash
// identically. Stored next to persisted markings to detect definition drift.
func DefinitionHash(d *Definition) (string, error) {
	canonical, err := MarshalCanonical(definitionObject(d))
	if err != nil {
		return "", fmt.Errorf("DefinitionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDefinition, canonical), nil
}

// MarkingHash fingerprints a Marking.
func MarkingHash(m Marking) (string, error) {
	canonical, err := MarshalCanonical(m.Places())
	if err != nil {
		return "", fmt.Errorf("MarkingHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMarking, canonical), nil
}

// MustDefinitionHash is like DefinitionHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDefinitionHash(d *Definition) string {
	h, err := DefinitionHash(d)
	if err != nil {
		panic(err)
	}
	return h
}
