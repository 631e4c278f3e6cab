package transform

import (
	"sort"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// Imputer fills gaps in numeric series. Series are grouped per aircraft and
// ordered by timestamp; gaps no longer than GapWindow consecutive missing
// points are linearly interpolated, longer gaps fall back to forward then
// backward fill, and series with no values at all take the batch mean.
type Imputer struct {
	// GapWindow is the largest interpolatable run of missing points.
	GapWindow int
}

// NewImputer returns an Imputer with the given gap window.
func NewImputer(gapWindow int) *Imputer {
	if gapWindow <= 0 {
		gapWindow = 5
	}
	return &Imputer{GapWindow: gapWindow}
}

type series struct {
	get  func(*models.EnrichedRecord) *float64
	set  func(*models.EnrichedRecord, float64)
	flag models.QualityFlag
}

func imputedSeries() []series {
	return []series{
		{
			get:  func(r *models.EnrichedRecord) *float64 { return r.Latitude },
			set:  func(r *models.EnrichedRecord, v float64) { r.Latitude = &v },
			flag: models.FlagImputedPosition,
		},
		{
			get:  func(r *models.EnrichedRecord) *float64 { return r.Longitude },
			set:  func(r *models.EnrichedRecord, v float64) { r.Longitude = &v },
			flag: models.FlagImputedPosition,
		},
		{
			get:  func(r *models.EnrichedRecord) *float64 { return r.AltitudeM },
			set:  func(r *models.EnrichedRecord, v float64) { r.AltitudeM = &v },
			flag: models.FlagImputedAltitude,
		},
		{
			get:  func(r *models.EnrichedRecord) *float64 { return r.VelocityMps },
			set:  func(r *models.EnrichedRecord, v float64) { r.VelocityMps = &v },
			flag: models.FlagImputedVelocity,
		},
	}
}

// Impute fills gaps in place across the whole batch. Records are not
// reordered; grouping and ordering happen on an index view.
func (im *Imputer) Impute(records []*models.EnrichedRecord) {
	if len(records) == 0 {
		return
	}

	byAircraft := groupByAircraft(records)

	for _, s := range imputedSeries() {
		mean, hasMean := batchMean(records, s.get)
		for _, idxs := range byAircraft {
			im.imputeSeries(records, idxs, s, mean, hasMean)
		}
	}
}

// groupByAircraft returns per-aircraft index lists sorted by timestamp.
func groupByAircraft(records []*models.EnrichedRecord) map[string][]int {
	byAircraft := make(map[string][]int)
	for i, r := range records {
		byAircraft[r.ICAO24] = append(byAircraft[r.ICAO24], i)
	}
	for _, idxs := range byAircraft {
		sort.SliceStable(idxs, func(a, b int) bool {
			return records[idxs[a]].Timestamp < records[idxs[b]].Timestamp
		})
	}
	return byAircraft
}

func batchMean(records []*models.EnrichedRecord, get func(*models.EnrichedRecord) *float64) (float64, bool) {
	var sum float64
	var n int
	for _, r := range records {
		if v := get(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (im *Imputer) imputeSeries(records []*models.EnrichedRecord, idxs []int, s series, mean float64, hasMean bool) {
	n := len(idxs)
	i := 0
	for i < n {
		if s.get(records[idxs[i]]) != nil {
			i++
			continue
		}
		// missing run [i, j)
		j := i
		for j < n && s.get(records[idxs[j]]) == nil {
			j++
		}
		runLen := j - i
		prevIdx, nextIdx := i-1, j

		switch {
		case prevIdx >= 0 && nextIdx < n && runLen <= im.GapWindow:
			// interpolate by timestamp between the bounding values
			prev, next := records[idxs[prevIdx]], records[idxs[nextIdx]]
			pv, nv := *s.get(prev), *s.get(next)
			span := float64(next.Timestamp - prev.Timestamp)
			for k := i; k < j; k++ {
				rec := records[idxs[k]]
				var v float64
				if span <= 0 {
					v = pv
				} else {
					frac := float64(rec.Timestamp-prev.Timestamp) / span
					v = pv + (nv-pv)*frac
				}
				s.set(rec, v)
				rec.AddFlag(s.flag)
			}
		case prevIdx >= 0:
			v := *s.get(records[idxs[prevIdx]])
			for k := i; k < j; k++ {
				s.set(records[idxs[k]], v)
				records[idxs[k]].AddFlag(s.flag)
				records[idxs[k]].AddFlag(models.FlagFilledForward)
			}
		case nextIdx < n:
			v := *s.get(records[idxs[nextIdx]])
			for k := i; k < j; k++ {
				s.set(records[idxs[k]], v)
				records[idxs[k]].AddFlag(s.flag)
				records[idxs[k]].AddFlag(models.FlagFilledBackward)
			}
		case hasMean:
			for k := i; k < j; k++ {
				s.set(records[idxs[k]], mean)
				records[idxs[k]].AddFlag(s.flag)
				records[idxs[k]].AddFlag(models.FlagStatisticalDefault)
			}
		default:
			// nothing to impute from; leave missing
		}
		i = j
	}
}
