package output

import (
	"strconv"
	"time"

	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

// InstitutionsTable lists institutions with their collection counts.
func InstitutionsTable(institutions []catalog.Institution, collections []catalog.Collection) Data {
	counts := make(map[string]int, len(institutions))
	for _, c := range collections {
		counts[c.InstitutionID]++
	}

	data := Data{
		Headers:      []string{"ID", "Name", "Collections", "Created"},
		RightAligned: []int{2},
	}
	for _, inst := range institutions {
		data.Rows = append(data.Rows, []string{
			inst.ID,
			inst.Name,
			strconv.Itoa(counts[inst.ID]),
			inst.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return data
}

// CollectionsTable lists collections with their institution name and location.
func CollectionsTable(collections []catalog.Collection, institutions []catalog.Institution) Data {
	names := make(map[string]string, len(institutions))
	for _, inst := range institutions {
		names[inst.ID] = inst.Name
	}

	data := Data{Headers: []string{"ID", "Name", "Institution", "Latitude", "Longitude", "Description"}}
	for _, c := range collections {
		lat, lon := "", ""
		if c.Geolocation != nil {
			lat = strconv.FormatFloat(c.Geolocation.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(c.Geolocation.Longitude, 'f', -1, 64)
		}
		data.Rows = append(data.Rows, []string{c.ID, c.Name, names[c.InstitutionID], lat, lon, c.Description})
	}
	return data
}

// PreviewTable shows each header of an upload with its suggested field.
func PreviewTable(p *ingest.Preview) Data {
	data := Data{Headers: []string{"Column", "Header", "Suggested Field"}}
	for i, header := range p.Headers {
		field := ""
		if f, ok := p.SuggestedMapping[i]; ok {
			field = f.String()
		}
		data.Rows = append(data.Rows, []string{strconv.Itoa(i), header, field})
	}
	return data
}

// ResultTable summarizes a committed upload.
func ResultTable(r *ingest.Result) Data {
	return Data{
		Headers:      []string{"Metric", "Value"},
		RightAligned: []int{1},
		Rows: [][]string{
			{"Rows", strconv.Itoa(r.RowsTotal)},
			{"Rows skipped", strconv.Itoa(r.RowsSkipped)},
			{"Warnings", strconv.Itoa(len(r.Warnings))},
			{"Institutions", strconv.Itoa(len(r.Institutions))},
			{"Institutions created", strconv.Itoa(r.InstitutionsCreated)},
			{"Collections", strconv.Itoa(len(r.Collections))},
			{"Collections created", strconv.Itoa(r.CollectionsCreated)},
		},
	}
}
