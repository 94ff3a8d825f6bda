package stac

// Provider represents an organization that captured, processed or hosts the
// data of a Collection. Name is unique within its Collection.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Url         string   `json:"url,omitempty"`
}

// ProviderRoles are the accepted values of Provider.Roles.
var ProviderRoles = []string{"licensor", "producer", "processor", "host"}

// UpsertProviders replaces current with incoming, matching entries by name.
// Matching providers keep their position and take the incoming values, new
// ones are appended in payload order, and every provider missing from
// incoming is dropped. The names of the dropped providers are returned.
func UpsertProviders(current, incoming []Provider) ([]Provider, []string) {
	byName := make(map[string]Provider, len(incoming))
	order := make([]string, 0, len(incoming))
	for _, p := range incoming {
		if _, dup := byName[p.Name]; !dup {
			order = append(order, p.Name)
		}
		byName[p.Name] = p
	}

	result := make([]Provider, 0, len(incoming))
	var deleted []string
	kept := make(map[string]bool, len(current))
	for _, p := range current {
		updated, ok := byName[p.Name]
		if !ok {
			deleted = append(deleted, p.Name)
			continue
		}
		kept[p.Name] = true
		result = append(result, updated.clone())
	}
	for _, name := range order {
		if !kept[name] {
			result = append(result, byName[name].clone())
		}
	}
	return result, deleted
}

func (p Provider) clone() Provider {
	if p.Roles != nil {
		p.Roles = append([]string(nil), p.Roles...)
	}
	return p
}
