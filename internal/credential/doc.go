// Package credential persists the authority's Credential Record.
//
// The record uses the lock controller's EEPROM byte layout so an image of
// the storage can be compared slot for slot with a physical unit:
//
//	0x0311..0x0315  credential digits, one per slot
//	0x0316          init marker, 0x55 when a credential has been stored
//
// Any other marker value, including the erased value 0xFF, means no
// credential has ever been created. Once written the marker is never cleared.
//
// Store works over any Storage that can read and write one byte at an
// address. MemoryStorage backs tests and ephemeral simulations; SQLiteStorage
// keeps the slots in the authority's database so the record survives restarts.
package credential
