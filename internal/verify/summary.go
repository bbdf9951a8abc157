package verify

import (
	"slices"

	"github.com/ppiankov/epistemia/internal/align"
	"github.com/ppiankov/epistemia/internal/model"
)

const summarySnippetLimit = 150

// dedupIDs drops empty and repeated ids, keeping first-seen order. It never
// returns nil so empty lists render as [].
func dedupIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// classifySufficiency reports the strongest evidence tier the verdict used
func classifySufficiency(ev model.EvidenceSet, used []string) model.EvidenceSufficiency {
	if len(ev.PrimaryDocument)+len(ev.Wikidata)+len(ev.Wikipedia) == 0 {
		return model.SufficiencyAbsent
	}

	for _, d := range ev.PrimaryDocument {
		if slices.Contains(used, d.ID()) {
			return model.SufficiencyVerified
		}
	}
	for _, f := range ev.Wikidata {
		if slices.Contains(used, f.ID()) {
			return model.SufficiencyVerified
		}
	}
	for _, p := range ev.Wikipedia {
		if slices.Contains(used, p.ID()) {
			return model.SufficiencyCorroborated
		}
	}
	return model.SufficiencyEvaluated
}

// buildSummary counts distinct evidence ids per source and describes the used ones
func buildSummary(ev model.EvidenceSet, used []string) *model.EvidenceSummary {
	return &model.EvidenceSummary{
		Wikidata:        sourceSummaryOf(ev.Wikidata, used, wikidataRecord),
		Wikipedia:       sourceSummaryOf(ev.Wikipedia, used, wikipediaRecord),
		PrimaryDocument: sourceSummaryOf(ev.PrimaryDocument, used, primaryRecord),
	}
}

// sourceSummaryOf summarizes one source's items against the used ids
func sourceSummaryOf[T model.EvidenceItem](items []T, used []string, record func(T) model.UsedEvidence) model.SourceSummary {
	s := model.SourceSummary{UsedItems: []model.UsedEvidence{}}
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		id := item.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		s.Total++

		if slices.Contains(used, id) {
			s.Used++
			s.UsedItems = append(s.UsedItems, record(item))
		}
	}
	return s
}

func wikidataRecord(f model.WikidataFact) model.UsedEvidence {
	return model.UsedEvidence{
		EvidenceID: f.ID(),
		Source:     model.SourceWikidata,
		Property:   f.Property,
		Value:      string(f.Value),
		Snippet:    align.Truncate(f.Snippet, summarySnippetLimit),
		URL:        f.URL,
	}
}

func wikipediaRecord(p model.WikipediaPassage) model.UsedEvidence {
	return model.UsedEvidence{
		EvidenceID: p.ID(),
		Source:     model.SourceWikipedia,
		Snippet:    align.Truncate(p.Excerpt(), summarySnippetLimit),
		URL:        p.URL,
	}
}

func primaryRecord(d model.PrimaryDocument) model.UsedEvidence {
	return model.UsedEvidence{
		EvidenceID:   d.ID(),
		Source:       model.SourcePrimaryDocument,
		Authority:    orDefault(d.Authority, "SEC"),
		DocumentType: orDefault(d.DocumentType, "Filing"),
		FilingYear:   string(d.FilingYear),
		Snippet:      align.Truncate(d.Excerpt(), summarySnippetLimit),
		URL:          d.URL,
	}
}
