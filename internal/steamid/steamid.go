// Package steamid normalizes user-supplied Steam identifiers to the
// canonical 64-bit account id.
//
// Users paste identifiers in three shapes: a full profile URL
// ("https://steamcommunity.com/profiles/76561197960435530"), the legacy
// textual form ("STEAM_0:0:11101"), or the canonical numeric id itself.
// Normalize is pure and best-effort; strict numeric validation happens
// separately at the point a value is used as a lookup key.
package steamid

import (
	"strconv"
	"strings"
)

// baseOffset is the fixed offset between a legacy 32-bit account number and
// the 64-bit SteamID space (the "individual, public universe" base).
const baseOffset = 76561197960265728

// legacyPrefix starts every legacy triplet id, e.g. "STEAM_0:0:11101".
const legacyPrefix = "STEAM_"

// Normalize converts raw input into the best-effort canonical id.
// Rules are applied in order:
//
//  1. Input containing "/" is treated as a profile URL and the segment
//     after the last slash is taken (a trailing slash is stripped first).
//  2. A legacy "STEAM_X:Y:Z" triplet becomes strconv(Z*2 + X + baseOffset).
//  3. Anything else passes through unchanged — either already canonical or
//     a vanity name to be rejected downstream.
//
// Normalize never fails; a malformed triplet falls through to rule 3.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.Contains(raw, "/") {
		raw = strings.TrimSuffix(raw, "/")
		return raw[strings.LastIndex(raw, "/")+1:]
	}

	if id, ok := fromLegacy(raw); ok {
		return id
	}

	return raw
}

// IsValid reports whether id is usable as a direct numeric lookup key:
// non-empty and digits only.
func IsValid(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fromLegacy parses "STEAM_X:Y:Z" and computes Z*2 + X + baseOffset.
// The middle segment Y must parse but does not contribute to the id.
func fromLegacy(raw string) (string, bool) {
	if !strings.HasPrefix(raw, legacyPrefix) {
		return "", false
	}

	parts := strings.Split(strings.TrimPrefix(raw, legacyPrefix), ":")
	if len(parts) != 3 {
		return "", false
	}

	x, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "", false
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return "", false
	}
	z, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", false
	}

	return strconv.FormatInt(z*2+x+baseOffset, 10), true
}
