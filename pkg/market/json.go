package market

import "encoding/json"

type marketJSON struct {
	Capacity      []int   `json:"capacity"`
	Priority      [][]int `json:"priority"`
	Preference    [][]int `json:"preference"`
	OutsideOption bool    `json:"outside_option,omitempty"`
}

// MarshalJSON encodes the market's input lists. The outside option is not
// written out; it is re-derived on decode, and forced ones are flagged.
func (m *Market) MarshalJSON() ([]byte, error) {
	capacity, priority, preference := m.Input()
	return json.Marshal(marketJSON{
		Capacity:      capacity,
		Priority:      priority,
		Preference:    preference,
		OutsideOption: m.forced,
	})
}

// UnmarshalJSON decodes and validates a market.
func (m *Market) UnmarshalJSON(data []byte) error {
	var raw marketJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var opts []Option
	if raw.OutsideOption {
		opts = append(opts, WithOutsideOption())
	}
	built, err := New(raw.Capacity, raw.Priority, raw.Preference, opts...)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}
