// Package ir provides the data model shared by every callbind package.
//
// This package contains type definitions and their canonical encodings only.
// All other internal packages import ir; ir imports nothing internal, so the
// binder, the catalog compiler and the store can exchange signatures without
// circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Values are a sealed family (IRNull, IRString, IRInt, IRBool, IRArray, IRObject)
//   - Signatures carry only what the introspection oracle can report:
//     name, order, optionality and the default value when it is known
//   - All JSON tags use snake_case
package ir
