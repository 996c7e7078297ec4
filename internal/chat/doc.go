// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat sends conversations to the remote assistant.
//
// An Orchestrator checks the session quota, posts the full ordered message
// list through a Transport, and on success returns a new Context holding the
// user message and the reply. Contexts are values; Send never mutates the one
// it was given.
//
// # Key Types
//
//   - Context: Ordered messages plus the static SystemConfig
//   - Transport / HTTPTransport: One request-response exchange
//   - Orchestrator: Quota gate, request assembly, context update
//   - Error: Classified failure (see Kind)
//   - Conversation: Binds a Context to a session and rejects stale results
//
// # Usage
//
//	o := chat.NewOrchestrator(chat.NewHTTPTransport(url), store)
//	res, err := o.Send(ctx, store.Current(), "What were USDC yields?", conv.Context)
//	if err != nil {
//	    fmt.Println(chat.UserMessage(err))
//	}
//	conv, _ = conv.Apply(res)
package chat
