package form

import (
	"strings"
)

// planTypeLabels is closed: anything else renders as an empty label
var planTypeLabels = map[string]string{
	"agencyManaged": "NDIA",
	"selfManaged":   "Self Managed",
	"planManaged":   "Plan Managed",
}

type flag struct {
	label string
	set   bool
}

// RenderContact renders the body of a contact form email
func RenderContact(s *Submission) string {
	return lines(
		field("Name", s.Name),
		field("Email", s.Email),
		field("Phone", s.Phone),
		field("Message", s.Message),
	)
}

// RenderReferral renders the body of a referral form email. All sections
// must be present.
func RenderReferral(s *Submission) string {
	blocks := []string{
		section("Participant Details", renderParticipant(s.Participant)),
		section("Services Details", field("Services Requested", ServiceList(s.Services))),
		section("Coordinator Details", renderCoordinator(s.Coordinator)),
		section("Plan Manager Details", renderPlanManager(s.PlanManager)),
		section("NDIS Details", renderNDIS(s.NDISDetails)),
		section("Preferred Support Days", DayList(s.PreferredDays)),
	}
	return strings.Join(blocks, "\n\n")
}

// ServiceList returns the labels of the requested services in form order
func ServiceList(s *Services) string {
	if s == nil {
		return ""
	}
	return joinFlags([]flag{
		{"Support Coordination", s.SupportCoordination},
		{"Community Access", s.CommunityAccess},
		{"Allied Health Assistants", s.AlliedHealthAssistants},
		{"Accommodation", s.Accommodation},
	})
}

// DayList returns the preferred days, Monday first
func DayList(d *PreferredDays) string {
	if d == nil {
		return ""
	}
	return joinFlags([]flag{
		{"Monday", d.Monday},
		{"Tuesday", d.Tuesday},
		{"Wednesday", d.Wednesday},
		{"Thursday", d.Thursday},
		{"Friday", d.Friday},
		{"Saturday", d.Saturday},
		{"Sunday", d.Sunday},
	})
}

// PlanTypeLabel maps a plan type to its display label
func PlanTypeLabel(planType string) string {
	return planTypeLabels[planType]
}

func renderParticipant(p *Participant) string {
	concerns := "N/A"
	if p.BehaviourConcerns != nil {
		concerns = *p.BehaviourConcerns
	}
	return lines(
		field("Name", p.Name),
		field("Email", p.Email),
		field("Phone", p.Phone),
		field("Date of Birth", p.DateOfBirth),
		field("Primary Disability", p.PrimaryDisability),
		field("Potential Risks/Behaviour Concerns", concerns),
	)
}

func renderCoordinator(c *Coordinator) string {
	return lines(
		field("Name", c.Name),
		field("Email", c.Email),
		field("Phone", c.Phone),
		field("Company", c.Company),
	)
}

func renderPlanManager(p *PlanManager) string {
	return lines(
		field("Name", p.Name),
		field("Email", p.Email),
		field("Plan Type", PlanTypeLabel(p.planType())),
	)
}

func renderNDIS(n *NDISDetails) string {
	return lines(
		field("NDIS Number", n.NDISNumber),
		field("Start Date", n.StartDate),
		field("End Date", n.EndDate),
	)
}

func joinFlags(flags []flag) string {
	labels := make([]string, 0, len(flags))
	for _, f := range flags {
		if f.set {
			labels = append(labels, f.label)
		}
	}
	return strings.Join(labels, ", ")
}

func section(title, content string) string {
	return title + ":\n" + content
}

func field(label, value string) string {
	return label + ": " + value
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}
