// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockstone

// Constants of duration and fixed-point arithmetic.
const (
	// Day is one day in seconds, the unit lockup durations are quoted in.
	Day = uint64(24 * 60 * 60)

	// BpsDenominator is the fixed-point denominator for basis-point factors.
	BpsDenominator = uint64(10_000)
)
