package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	devenv "visaworkflow-backend/dev/env"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/visa"

	"github.com/titanous/json5"
)

// LoadFileSource reads a json5 document of the form
//
//	{ "<post>": { "<visa type>": { "<category>": [...] } } }
//
// the whole document is validated up front, a malformed record fails the
// load with an error naming its post and visa type.
func LoadFileSource(path string) (StaticSource, error) {
	resolved, err := devenv.ResolvePath(path)
	if err != nil {
		return StaticSource{}, err
	}
	contents, err := os.ReadFile(resolved)
	if err != nil {
		return StaticSource{}, err
	}

	var document map[string]map[string]any
	err = json5.Unmarshal(contents, &document)
	if err != nil {
		return StaticSource{}, fmt.Errorf("parse %s: %w", path, err)
	}

	postIds := make([]string, 0, len(document))
	for post := range document {
		postIds = append(postIds, post)
	}
	slices.Sort(postIds)

	records := make(map[posts.ID]map[string]visa.Record, len(document))
	for _, post := range postIds {
		byVisa := document[post]
		visaTypes := make([]string, 0, len(byVisa))
		for visaType := range byVisa {
			visaTypes = append(visaTypes, visaType)
		}
		slices.Sort(visaTypes)

		records[posts.ID(post)] = make(map[string]visa.Record, len(byVisa))
		for _, visaType := range visaTypes {
			// json5 values are re-encoded as plain json so that the
			// record decoder sees standard syntax.
			normalized, err := json.Marshal(byVisa[visaType])
			if err != nil {
				return StaticSource{}, fmt.Errorf("%s: %s/%s: %w", path, post, visaType, err)
			}
			var record visa.Record
			err = json.Unmarshal(normalized, &record)
			if err != nil {
				return StaticSource{}, fmt.Errorf("%s: %s/%s: %w", path, post, visaType, err)
			}
			records[posts.ID(post)][visaType] = record
		}
	}

	return NewStaticSource(records), nil
}
