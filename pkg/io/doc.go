// Package io reads and writes school choice markets and matchings.
//
// # Text Format
//
// A market is stored as two comma-separated files. The school file holds one
// line per school: the capacity followed by the eligible students from
// highest to lowest priority.
//
//	2, 3, 0, 1
//	1, 0, 1, 2, 3
//
// The student file holds one line per student listing schools from best to
// worst.
//
//	0, 1
//	1, 0
//
// Blank lines and spaces around numbers are ignored. Older generators wrote
// the outside option into the student file as an extra trailing school
// index; [ReadMarket] drops it and lets [market.New] re-derive the outside
// option.
//
// A matching is stored the same way: in the school file line k lists the
// students at school k, in the student file line i holds the school of
// student i, or -1 if the student is unassigned. The outside option, when
// present, is the last school line.
//
// # JSON Format
//
// [WriteJSON] and [ReadJSON] store a [Problem]: a market together with any
// matchings computed for it, keyed by mechanism name.
//
//	{
//	  "market": {
//	    "capacity": [1, 1],
//	    "priority": [[0, 1], [1, 0]],
//	    "preference": [[1, 0], [0, 1]]
//	  },
//	  "matchings": {
//	    "ttc": {"schools": [[1], [0]], "students": [1, 0]}
//	  }
//	}
//
// Decoding validates the market and checks every matching against it, so a
// document that round-trips through these functions yields equal values.
package io
