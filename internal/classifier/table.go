package classifier

import (
	"fmt"
	"slices"
	"sync"
)

// Table is an ordered, immutable set of signatures. Order breaks nothing but
// presentation: ties at the top are reported, never resolved by position.
type Table struct {
	signatures []Signature
	byType     map[string]int
}

// NewTable validates and freezes a signature list.
func NewTable(signatures []Signature) (*Table, error) {
	t := &Table{
		signatures: append([]Signature(nil), signatures...),
		byType:     make(map[string]int, len(signatures)),
	}
	for i, sig := range t.signatures {
		if sig.TypeID == "" || sig.Label == "" {
			return nil, fmt.Errorf("signature %d: type id and label are required", i)
		}
		if len(sig.Anchors) == 0 {
			return nil, fmt.Errorf("signature %s: at least one anchor is required", sig.TypeID)
		}
		if _, dup := t.byType[sig.TypeID]; dup {
			return nil, fmt.Errorf("signature %s: duplicate type id", sig.TypeID)
		}
		t.byType[sig.TypeID] = i
	}
	return t, nil
}

// Len returns the number of signatures.
func (t *Table) Len() int { return len(t.signatures) }

// Signatures returns a copy of the ordered signature list.
func (t *Table) Signatures() []Signature {
	return append([]Signature(nil), t.signatures...)
}

// Lookup returns the signature for a type id.
func (t *Table) Lookup(typeID string) (Signature, bool) {
	idx, ok := t.byType[typeID]
	if !ok {
		return Signature{}, false
	}
	return t.signatures[idx], true
}

var defaultTable = sync.OnceValue(func() *Table {
	table, err := NewTable(letterSignatures())
	if err != nil {
		panic(err)
	}
	return table
})

// DefaultTable returns the built-in table of correspondence types.
func DefaultTable() *Table {
	return defaultTable()
}

var (
	denial       = AnyOf("deny", "denial")
	acceptance   = AnyOf("accept", "accepted", "acceptance", "approved")
	partB        = AnyOf("part b")
	partE        = AnyOf("part e")
	benefit150   = AnyOf("$150,000", "$150k", "$150 000")
	consequent   = AnyOf("consequential", "cq")
	rdHeading    = AnyOf("recommended decision")
	fdHeading    = AnyOf("final decision")
	increasedImp = AnyOf("increased impairment", "increase in impairment")
)

func disq(phrases ...string) []Matcher {
	out := make([]Matcher, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, Literal(p))
	}
	return out
}

func anchorPattern(expr string) Anchor {
	return Anchor{Alternatives: []Matcher{Pattern(expr)}}
}

func letterSignatures() []Signature {
	rdDisq := []string{"notice of final decision", "deny", "denial"}
	fdDisq := []string{"notice of recommended decision", "deny", "denial"}

	return []Signature{
		{
			TypeID: "ar_ack",
			Label:  "AR Ack",
			Anchors: []Anchor{
				AnyOf("According to our records, you have been designated as the authorized representative in the above case."),
				AnyOf("As the authorized representative, you have the ability to receive correspondence, submit additional evidence, argue factual or legal issues and exercise claimant rights pertaining to the above claim."),
			},
			Fields: []FieldRule{caseIDRule(false), clientNameRule()},
		},
		{
			TypeID: "claim_ack",
			Label:  "Claim Ack",
			Anchors: []Anchor{
				AnyOf("claim acknowledgment", "acknowledge receipt of your claim", "received your claim for benefits"),
				AnyOf("claim for benefits", "claim acknowledgment"),
			},
			Disqualifiers: disq("designated as the authorized representative", "withdrawing your claim"),
			Fields:        standardFields(),
		},
		{
			TypeID:  "withdraw_ack",
			Label:   "Withdraw Ack",
			Anchors: []Anchor{AnyOf("withdrawing your claim"), AnyOf("acknowledging that withdrawal")},
			Fields:  standardFields(),
		},
		{
			TypeID:  "address_change_ack",
			Label:   "Address Change Ack",
			Anchors: []Anchor{AnyOf("change of address request"), AnyOf("acknowledge receipt")},
			Fields:  standardFields(),
		},
		{
			TypeID: "objection_rd_deny_ack",
			Label:  "Objection to RD Deny Ack",
			Anchors: []Anchor{
				AnyOf("letter of objection", "object to the district office", "recommended decision of denial", "objections will be carefully considered"),
				AnyOf("received within 20 days"),
			},
			Fields: standardFields(),
		},
		{
			TypeID:  "remand_order",
			Label:   "Remand Order",
			Anchors: []Anchor{AnyOf("remand order"), AnyOf("file is being returned")},
			Fields:  standardFields(),
		},
		{
			TypeID:        "en16",
			Label:         "EN16",
			Anchors:       []Anchor{AnyOf("en-16", "en 16")},
			Disqualifiers: disq("recommended decision", "final decision", "remand order"),
			Fields:        standardFields(),
		},
		{
			TypeID: "ee11a",
			Label:  "EE-11A",
			Anchors: []Anchor{
				AnyOf("ee-11a", "ee 11a", "whole body impairment", "physician must be certified"),
				AnyOf("impairment"),
				partE,
			},
			Disqualifiers: disq("recommended decision", "final decision", "identified you", "you have selected dr"),
			Fields:        standardFields(),
		},
		{
			TypeID:        "wh_rfi",
			Label:         "WH RFI",
			Anchors:       []Anchor{AnyOf("work history"), AnyOf("request", "requested")},
			Disqualifiers: disq("industrial hygienist", "industrial hygiene", "recommended decision", "final decision"),
			Fields:        standardFields(),
		},
		{
			TypeID: "ih_notice",
			Label:  "IH Notice",
			Anchors: []Anchor{
				AnyOf("industrial hygienist", "industrial hygiene", "exposure levels", "toxins"),
				AnyOf("work history"),
				AnyOf("verified"),
			},
			Disqualifiers: disq("request for information"),
			Fields:        standardFields(),
		},
		{
			TypeID: "rfi_post_ih",
			Label:  "RFI Post IH",
			Anchors: []Anchor{
				AnyOf("industrial hygiene", "industrial hygienist"),
				AnyOf("request for information"),
				AnyOf("dr.", "doctor"),
			},
			Fields: standardFields(),
		},
		{
			TypeID:        "rd_deny",
			Label:         "RD Deny",
			Anchors:       []Anchor{rdHeading, denial},
			Disqualifiers: disq("notice of final decision", "letter of objection", "received within 20 days"),
			Fields:        standardFields(FieldCondition),
			LabelTemplate: "RD Deny {condition}",
			LabelFallback: "RD Deny",
		},
		{
			TypeID:        "rd_accept_be",
			Label:         "RD Accept B&E",
			Anchors:       []Anchor{rdHeading, partB, partE, benefit150},
			Disqualifiers: disq(rdDisq...),
			Fields:        standardFields(FieldAmount),
			LabelTemplate: "RD Accept B&E {amount}",
			LabelFallback: "RD Accept B&E $150k",
		},
		{
			TypeID:        "rd_accept_impair",
			Label:         "RD Accept Impair",
			Anchors:       []Anchor{rdHeading, AnyOf("impairment"), anchorPattern(amountAnchor)},
			Disqualifiers: disq(slices.Concat(rdDisq, []string{"part b"})...),
			Fields:        standardFields(FieldAmount),
			LabelTemplate: "RD Accept Impair {amount}",
			LabelFallback: "RD Accept Impair",
		},
		{
			TypeID:        "rd_accept_e",
			Label:         "RD Accept E",
			Anchors:       []Anchor{rdHeading, partE, acceptance},
			Disqualifiers: disq(slices.Concat(rdDisq, []string{"part b", "impairment"})...),
			Fields:        standardFields(FieldCondition),
			LabelTemplate: "RD Accept E {condition}",
			LabelFallback: "RD Accept E PF",
		},
		{
			TypeID:        "fd_deny",
			Label:         "FD Deny",
			Anchors:       []Anchor{fdHeading, denial},
			Disqualifiers: disq("notice of recommended decision"),
			Fields:        standardFields(FieldCondition),
			LabelTemplate: "FD Deny {condition}",
			LabelFallback: "FD Deny",
		},
		{
			TypeID:        "fd_accept_be",
			Label:         "FD Accept B&E",
			Anchors:       []Anchor{fdHeading, partB, partE, benefit150},
			Disqualifiers: disq(fdDisq...),
			Fields:        standardFields(FieldAmount),
			LabelTemplate: "FD Accept B&E {amount}",
			LabelFallback: "FD Accept B&E $150k",
		},
		{
			TypeID:        "fd_accept_cq_specific",
			Label:         "FD Accept CQ Specific",
			Anchors:       []Anchor{fdHeading, consequent, anchorPattern(conditionAnchor)},
			Disqualifiers: disq(slices.Concat(fdDisq, []string{"part b"})...),
			Fields:        standardFields(FieldCondition),
			LabelTemplate: "FD Accept CQ {condition}",
			LabelFallback: "FD Accept CQ",
		},
		{
			TypeID:        "fd_accept_cq",
			Label:         "FD Accept CQ",
			Anchors:       []Anchor{fdHeading, consequent},
			Disqualifiers: append(disq(slices.Concat(fdDisq, []string{"part b"})...), Pattern(conditionAnchor)),
			Fields:        standardFields(),
		},
		{
			TypeID:        "fd_accept_ir",
			Label:         "FD Accept IR",
			Anchors:       []Anchor{fdHeading, increasedImp, anchorPattern(amountAnchor)},
			Disqualifiers: disq(slices.Concat(fdDisq, []string{"part b", "consequential", "cq"})...),
			Fields:        standardFields(FieldAmount),
			LabelTemplate: "FD Accept IR {amount}",
			LabelFallback: "FD Accept IR",
		},
		{
			TypeID:        "fd_accept_impair",
			Label:         "FD Accept Impair",
			Anchors:       []Anchor{fdHeading, AnyOf("impairment"), anchorPattern(amountAnchor)},
			Disqualifiers: disq(slices.Concat(fdDisq, []string{"part b", "consequential", "cq", "increased impairment", "increase in impairment"})...),
			Fields:        standardFields(FieldAmount),
			LabelTemplate: "FD Accept Impair {amount}",
			LabelFallback: "FD Accept Impair",
		},
		{
			TypeID:        "fd_accept_e",
			Label:         "FD Accept E",
			Anchors:       []Anchor{fdHeading, partE, acceptance},
			Disqualifiers: disq(slices.Concat(fdDisq, []string{"part b", "impairment", "consequential", "cq"})...),
			Fields:        standardFields(FieldCondition),
			LabelTemplate: "FD Accept E {condition}",
			LabelFallback: "FD Accept E",
		},
		{
			TypeID: "impair_auth",
			Label:  "Impair Auth",
			Anchors: []Anchor{
				AnyOf("impairment evaluation"),
				AnyOf("identified you"),
				AnyOf("physician criteria", "certified by"),
			},
			Disqualifiers: disq("you have selected dr"),
			Fields:        standardFields(),
		},
		{
			TypeID:        "ir_ack",
			Label:         "IR Ack",
			Anchors:       []Anchor{AnyOf("impairment evaluation"), AnyOf("you have selected dr")},
			Disqualifiers: disq("identified you"),
			Fields:        standardFields(),
		},
		{
			TypeID:        "ir_follow_up",
			Label:         "IR Follow Up",
			Anchors:       []Anchor{AnyOf("received notification"), AnyOf("impairment appt", "impairment appointment")},
			Disqualifiers: disq("within 30 days"),
			Fields:        standardFields(),
		},
		{
			TypeID:  "impairment_final_notice",
			Label:   "Impairment Final Notice",
			Anchors: []Anchor{AnyOf("final notice"), AnyOf("impairment authorization")},
			Fields:  standardFields(),
		},
		{
			TypeID: "impair_appt_request",
			Label:  "Impair Appt Request",
			Anchors: []Anchor{
				AnyOf("schedule your impairment appt", "schedule your impairment appointment"),
				AnyOf("within 30 days"),
			},
			Disqualifiers: disq("received notification", "final notice"),
			Fields:        standardFields(),
		},
		{
			TypeID:  "ir_deferral_notice",
			Label:   "IR Deferral Notice",
			Anchors: []Anchor{AnyOf("deferral status"), AnyOf("impairment claim")},
			Fields:  standardFields(),
		},
		{
			TypeID: "dr_ir_report",
			Label:  "Dr IR Report",
			Anchors: []Anchor{
				anchorPattern(doctorAnchor),
				anchorPattern(percentageAnchor),
				AnyOf("impairment"),
			},
			Disqualifiers: disq("recommended decision", "final decision", "impairment evaluation", "final notice", "deferral status"),
			Fields:        standardFields(FieldDoctor, FieldPercentage),
			LabelTemplate: "Dr. {doctor} IR {percentage}",
			LabelFallback: "Dr IR Report",
		},
		{
			TypeID:  "en20_rejection",
			Label:   "EN-20 Rejection",
			Anchors: []Anchor{AnyOf("en-20", "en 20"), AnyOf("rejection", "rejected", "errors")},
			Fields:  standardFields(),
		},
		{
			TypeID:        "wl",
			Label:         "WL",
			Anchors:       []Anchor{AnyOf("wage loss", "wl"), AnyOf("benefits", "request")},
			Disqualifiers: disq("recommended decision", "final decision"),
			Fields:        standardFields(),
		},
		{
			TypeID:        "orau",
			Label:         "ORAU",
			Anchors:       []Anchor{AnyOf("orau", "dose reconstruction"), AnyOf("radiation", "monitoring")},
			Disqualifiers: disq("waiver", "recommended decision", "final decision"),
			Fields:        standardFields(),
		},
		{
			TypeID:  "niosh_waiver",
			Label:   "NIOSH Waiver",
			Anchors: []Anchor{AnyOf("niosh"), AnyOf("waiver")},
			Fields:  standardFields(),
		},
		{
			TypeID:        "dme_deny",
			Label:         "DME Deny",
			Anchors:       []Anchor{AnyOf("durable medical equipment", "dme"), AnyOf("deny", "denial", "denied")},
			Disqualifiers: disq("recommended decision", "final decision"),
			Fields:        standardFields(),
		},
		{
			TypeID:        "hhc_auth",
			Label:         "HHC Auth",
			Anchors:       []Anchor{AnyOf("home healthcare", "home health care", "hhc"), AnyOf("authorization", "authorized", "auth")},
			Disqualifiers: disq("deny", "denial", "denied", "designated as the authorized representative"),
			Fields:        standardFields(),
		},
		{
			TypeID:        "lmn_request",
			Label:         "LMN Request",
			Anchors:       []Anchor{AnyOf("letter of medical necessity", "lmn"), AnyOf("request", "requested")},
			Disqualifiers: disq("recommended decision", "final decision"),
			Fields:        standardFields(),
		},
	}
}
