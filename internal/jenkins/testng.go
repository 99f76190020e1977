package jenkins

import (
	"encoding/xml"

	"qacoverage.app/api-server/internal/model"
)

type testNGResults struct {
	XMLName xml.Name      `xml:"testng-results"`
	Suites  []testNGSuite `xml:"suite"`
}

type testNGSuite struct {
	Name  string       `xml:"name,attr"`
	Tests []testNGTest `xml:"test"`
}

type testNGTest struct {
	Name    string        `xml:"name,attr"`
	Classes []testNGClass `xml:"class"`
}

type testNGClass struct {
	Name    string         `xml:"name,attr"`
	Methods []testNGMethod `xml:"test-method"`
}

type testNGMethod struct {
	Name       string `xml:"name,attr"`
	Status     string `xml:"status,attr"`
	DurationMS int64  `xml:"duration-ms,attr"`
	IsConfig   bool   `xml:"is-config,attr"`
}

// ParseTestNGArtifacts turns one result document per parallel execution into
// a single flat record sequence. Records are concatenated in document order,
// never merged: every method execution stays a distinct record. Documents
// that fail to parse are skipped; all-unparseable input yields an empty
// sequence, not an error.
func ParseTestNGArtifacts(docs ...[]byte) []model.TestCaseRecord {
	records := []model.TestCaseRecord{}
	for _, doc := range docs {
		var results testNGResults
		if err := xml.Unmarshal(doc, &results); err != nil {
			continue
		}
		for _, suite := range results.Suites {
			for _, test := range suite.Tests {
				for _, class := range test.Classes {
					for _, method := range class.Methods {
						// Configuration hooks are not test cases.
						if method.IsConfig {
							continue
						}
						records = append(records, model.TestCaseRecord{
							ClassName:       class.Name,
							TestName:        method.Name,
							Status:          parseTestStatus(method.Status),
							DurationSeconds: float64(method.DurationMS) / 1000.0,
						})
					}
				}
			}
		}
	}
	return records
}

// CountByStatus derives aggregate counts from a record sequence.
func CountByStatus(records []model.TestCaseRecord) (passed, failed, skipped int) {
	for _, record := range records {
		switch record.Status {
		case model.TestPassed:
			passed++
		case model.TestFailed:
			failed++
		case model.TestSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

func parseTestStatus(raw string) model.TestStatus {
	switch raw {
	case "PASS":
		return model.TestPassed
	case "SKIP":
		return model.TestSkipped
	default:
		return model.TestFailed
	}
}
