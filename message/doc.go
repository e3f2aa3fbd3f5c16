// Package message turns a classified request failure into the single
// user-facing sentence a UI may display.
//
// Resolution order, highest first:
//
//  1. an exact match of the raw error message in Options.CustomMessages
//  2. the backend body's "message" field (string, list, or nested object)
//  3. the canonical sentence for the HTTP status
//  4. the network-unreachable sentence when no response was received
//  5. Options.FallbackMessage, else the generic unknown-error sentence
package message
