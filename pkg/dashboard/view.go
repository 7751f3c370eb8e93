package dashboard

import (
	"time"

	"servicedeck/pkg/models"
)

// View is a point-in-time copy of the dashboard state, safe to render or serialize.
type View struct {
	Refreshing  bool          `json:"refreshing"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Services    []ServiceView `json:"services"`
}

// ServiceView is one service card.
type ServiceView struct {
	Descriptor     models.ServiceDescriptor `json:"descriptor"`
	Status         models.ServiceStatus     `json:"status"`
	Display        string                   `json:"display"`
	Response       *models.ServiceResponse  `json:"response,omitempty"`
	RequestLoading bool                     `json:"requestLoading"`
	InfoEnabled    bool                     `json:"infoEnabled"`
}

// DisplayLabel maps a status to the label shown on a service card.
func DisplayLabel(status models.Status) string {
	switch status {
	case models.StatusChecking:
		return "Checking..."
	case models.StatusHealthy:
		return "Healthy"
	case models.StatusUnhealthy:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// Snapshot projects the current state into a View.
func (d *Dashboard) Snapshot() View {
	d.mu.RLock()
	defer d.mu.RUnlock()

	view := View{
		Refreshing:  d.refreshing,
		GeneratedAt: d.now().UTC(),
		Services:    make([]ServiceView, 0, len(d.services)),
	}
	for _, svc := range d.services {
		st := d.statuses[svc.ID]
		sv := ServiceView{
			Descriptor:     svc,
			Status:         st,
			Display:        DisplayLabel(st.Status),
			RequestLoading: d.requestLoading[svc.ID] > 0,
		}
		sv.InfoEnabled = st.Status == models.StatusHealthy && !sv.RequestLoading
		if resp, ok := d.responses[svc.ID]; ok {
			sv.Response = &resp
		}
		view.Services = append(view.Services, sv)
	}
	return view
}

// Unhealthy returns the ids of services whose last check failed.
func (v View) Unhealthy() []string {
	var ids []string
	for _, s := range v.Services {
		if s.Status.Status == models.StatusUnhealthy {
			ids = append(ids, s.Descriptor.ID)
		}
	}
	return ids
}
