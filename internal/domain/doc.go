// Package domain contains the core business concepts of the signing bot:
// Telegram update shapes, file naming rules and submission records.
// Keep this package free of transport (HTTP) and infrastructure (Telegram, Drive, Redis) concerns.
package domain
