// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package geo

import (
	"errors"
	"math"
)

// WGS84 ellipsoid parameters.
const (
	SemiMajorAxisM = 6378137.0
	Flattening     = 1.0 / 298.257223563
	SemiMinorAxisM = SemiMajorAxisM * (1.0 - Flattening)
)

// sigmaTolerance bounds the Vincenty iteration: it stops once successive
// sigma values differ by less than this.
const sigmaTolerance = 1e-12

// maxIterations caps the iteration; rather than spin on a pathological
// input, ProjectGeodesic gives up and reports ErrGeodesicNonConvergence.
// A variable so tests can lower the cap.
var maxIterations = 200

// ErrGeodesicNonConvergence indicates that the Vincenty direct iteration
// did not converge within the iteration cap.
var ErrGeodesicNonConvergence = errors.New("geo: geodesic iteration did not converge")

// ProjectGeodesic projects a WGS84 point along a geodesic using Vincenty's
// direct method. lat/lon and bearing are in degrees, distance in meters
// (must be >= 0). A distance of exactly 0 returns the input point unchanged.
// The destination longitude is normalized to [-180, 180).
func ProjectGeodesic(lat, lon, bearingDeg, distanceM float64) (float64, float64, error) {
	if distanceM == 0 {
		return lat, lon, nil
	}

	alpha1 := bearingDeg * math.Pi / 180.0
	sinAlpha1 := math.Sin(alpha1)
	cosAlpha1 := math.Cos(alpha1)

	phi1 := lat * math.Pi / 180.0
	tanU1 := (1.0 - Flattening) * math.Tan(phi1)
	cosU1 := 1.0 / math.Sqrt(1.0+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1.0 - sinAlpha*sinAlpha
	uSq := cosSqAlpha * (SemiMajorAxisM*SemiMajorAxisM - SemiMinorAxisM*SemiMinorAxisM) /
		(SemiMinorAxisM * SemiMinorAxisM)
	bigA := 1.0 + uSq/16384.0*(4096.0+uSq*(-768.0+uSq*(320.0-175.0*uSq)))
	bigB := uSq / 1024.0 * (256.0 + uSq*(-128.0+uSq*(74.0-47.0*uSq)))

	sigma := distanceM / (SemiMinorAxisM * bigA)
	var sinSigma, cosSigma, cos2SigmaM float64

	converged := false
	for i := 0; i < maxIterations; i++ {
		cos2SigmaM = math.Cos(2.0*sigma1 + sigma)
		sinSigma = math.Sin(sigma)
		cosSigma = math.Cos(sigma)
		deltaSigma := bigB * sinSigma * (cos2SigmaM + bigB/4.0*
			(cosSigma*(-1.0+2.0*cos2SigmaM*cos2SigmaM)-
				bigB/6.0*cos2SigmaM*(-3.0+4.0*sinSigma*sinSigma)*
					(-3.0+4.0*cos2SigmaM*cos2SigmaM)))
		sigmaNext := distanceM/(SemiMinorAxisM*bigA) + deltaSigma
		if math.Abs(sigmaNext-sigma) <= sigmaTolerance {
			sigma = sigmaNext
			converged = true
			break
		}
		sigma = sigmaNext
	}
	if !converged {
		return 0, 0, ErrGeodesicNonConvergence
	}

	cos2SigmaM = math.Cos(2.0*sigma1 + sigma)
	sinSigma = math.Sin(sigma)
	cosSigma = math.Cos(sigma)

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	phi2 := math.Atan2(
		sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1.0-Flattening)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp),
	)
	lambda := math.Atan2(
		sinSigma*sinAlpha1,
		cosU1*cosSigma-sinU1*sinSigma*cosAlpha1,
	)
	c := Flattening / 16.0 * cosSqAlpha * (4.0 + Flattening*(4.0-3.0*cosSqAlpha))
	l := lambda - (1.0-c)*Flattening*sinAlpha*
		(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1.0+2.0*cos2SigmaM*cos2SigmaM)))

	lat2 := phi2 * 180.0 / math.Pi
	lon2 := lon + l*180.0/math.Pi

	// Normalize longitude to [-180, 180).
	lon2 = math.Mod(lon2+180.0, 360.0)
	if lon2 < 0 {
		lon2 += 360.0
	}
	lon2 -= 180.0

	return lat2, lon2, nil
}
