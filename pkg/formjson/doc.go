// Package formjson maps JSON payloads to form domain values and back.
//
// Payloads are tagged: a field carries a fieldType and a validator carries a
// validatorType. Decoding a payload with a missing or unknown tag, or a
// value whose shape does not match the tag, fails with a
// *DeserializationError. The package holds no state.
package formjson
