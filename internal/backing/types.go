package backing

import "github.com/scalesim-go/sram/internal/interfaces"

// Address is re-exported from internal/interfaces so callers of this
// package don't need to import both.
type Address = interfaces.Address

// NoAddress is the sentinel denoting "no address" in a request row.
const NoAddress = interfaces.NoAddress
