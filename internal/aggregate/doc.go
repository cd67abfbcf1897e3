// Package aggregate turns raw remote records into flat rows and label histograms.
//
// Records stay as [encoding/json.RawMessage] until projected. A [Field] names a gjson path into each record,
// so listing commands can declare their columns instead of decoding into nested structs.
//
// [Count] builds a [FrequencyTable] whose [FrequencyTable.Sorted] order is descending by count with ties
// kept in first-seen order.
package aggregate
