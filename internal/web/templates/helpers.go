package templates

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/LeadImport/internal/leadimport"
)

var resultStatuses = []leadimport.ResultStatus{
	leadimport.ResultSuccess,
	leadimport.ResultWarning,
	leadimport.ResultError,
}

// filterResults keeps results with the given status. An empty filter keeps all.
func filterResults(results []leadimport.RowResult, filter leadimport.ResultStatus) []leadimport.RowResult {
	if filter == "" {
		return results
	}
	var out []leadimport.RowResult
	for _, res := range results {
		if res.Status == filter {
			out = append(out, res)
		}
	}
	return out
}

func progressText(st leadimport.RunStatus) string {
	return fmt.Sprintf("%d of %d rows (%d%%)", st.Progress.Processed, st.Progress.Total, st.Percent)
}

func failureText(msg string) string {
	return leadimport.FormatUserError(errors.New(msg))
}
