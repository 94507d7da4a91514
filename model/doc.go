// Package model defines the provider-agnostic abstraction over generative
// models used by the stepchain gateway.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Ollama) live in sub-packages and implement
// Model so the gateway and agents stay decoupled from vendor SDKs.
package model
