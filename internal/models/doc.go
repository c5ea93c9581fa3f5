// Package models defines the core domain models for the Netsplit engine.
//
// # Current Models
//
//   - Group: a roster of members plus the append-only expense history
//   - Member: a participant, either resolved via an identity provider or
//     entered manually as a raw wallet address
//   - Expense: a single shared expense carrying its split policy
//   - Settlement: a recorded payment between two members
//   - WalletRef: where a member can receive funds, which may still be
//     pending resolution
//
// User is the account model for the HTTP layer's authentication and is not
// part of the ledger domain.
//
// # Design Principles
//
//  1. **Groups own their data**: members and expenses are never shared
//     across groups; a Group value is a complete snapshot.
//  2. **Expenses are immutable**: amendments are new expenses, never edits.
//  3. **No string sentinels**: an unknown wallet is represented by the
//     WalletRef type, not by a placeholder prefix on the address string.
//  4. **Avoid circular references**: expenses reference members by wallet
//     address, not by pointer.
package models
