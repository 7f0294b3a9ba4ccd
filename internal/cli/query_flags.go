package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/pacsforge/qido/internal/config"
	"github.com/pacsforge/qido/internal/dcm"
	"github.com/pacsforge/qido/internal/query"
)

// queryOptions holds the flags shared by search and count.
type queryOptions struct {
	level      string
	match      []string
	patientIDs []string
	returnKeys []string
	orderBy    string
	offset     int
	limit      int
	project    string
	subject    string
	session    string
}

func (o *queryOptions) register(flags *pflag.FlagSet) {
	flags.StringVarP(&o.level, "level", "l", "STUDY", "Query level: PATIENT, STUDY, SERIES or IMAGE")
	flags.StringArrayVarP(&o.match, "match", "m", nil, "Matching key, keyword=value (repeatable)")
	flags.StringArrayVar(&o.patientIDs, "patient-id", nil, "Patient ID, id[@issuer] (repeatable)")
	flags.StringArrayVarP(&o.returnKeys, "returnkey", "r", nil, "Return only this attribute (repeatable)")
	flags.StringVar(&o.orderBy, "orderby", "", "Sort keys, comma-separated; prefix with - for descending")
	flags.IntVar(&o.offset, "offset", 0, "Number of matches to skip")
	flags.IntVar(&o.limit, "limit", 0, "Maximum number of matches to return")
	flags.StringVar(&o.project, "project", "", "Project identifier stamped onto results")
	flags.StringVar(&o.subject, "subject", "", "Subject identifier stamped onto results")
	flags.StringVar(&o.session, "session", "", "Session identifier stamped onto results")
}

// context translates the flags into a query context.
func (o *queryOptions) context(cfg *config.Config) (*query.Context, error) {
	level, err := query.ParseLevel(strings.ToUpper(o.level))
	if err != nil {
		return nil, err
	}
	ctx := query.NewContext(level)
	ctx.CombinedDatetimeMatching = cfg.Query.CombinedDatetimeMatching
	ctx.OnlyWithStudies = cfg.Query.OnlyWithStudies
	ctx.Offset = o.offset
	ctx.Limit = cfg.EffectiveLimit(o.limit)
	ctx.Identifiers = query.Identifiers{
		Project: firstNonEmpty(o.project, cfg.Project),
		Subject: o.subject,
		Session: o.session,
	}

	for _, m := range o.match {
		key, value, ok := strings.Cut(m, "=")
		if !ok {
			return nil, fmt.Errorf("invalid match %q: expected keyword=value", m)
		}
		tag, err := parseTag(key)
		if err != nil {
			return nil, err
		}
		ctx.MatchingKeys.SetString(tag, dcm.VROf(tag), dcm.SplitValues(value)...)
	}

	for _, pid := range o.patientIDs {
		id, issuer, _ := strings.Cut(pid, "@")
		ctx.PatientIDs = append(ctx.PatientIDs, query.PatientID{ID: id, Issuer: issuer})
	}

	if len(o.returnKeys) > 0 {
		ctx.ReturnKeys = dcm.New()
		for _, key := range o.returnKeys {
			tag, err := parseTag(key)
			if err != nil {
				return nil, err
			}
			ctx.ReturnKeys.SetEmpty(tag, dcm.VROf(tag))
		}
	}

	if o.orderBy != "" {
		for _, key := range strings.Split(o.orderBy, ",") {
			key = strings.TrimSpace(key)
			desc := strings.HasPrefix(key, "-")
			tag, err := parseTag(strings.TrimPrefix(key, "-"))
			if err != nil {
				return nil, err
			}
			ctx.OrderByTags = append(ctx.OrderByTags, query.OrderByTag{Tag: tag, Desc: desc})
		}
	}
	return ctx, nil
}

// parseTag resolves a dictionary keyword or an 8-digit hex tag.
func parseTag(s string) (dcm.Tag, error) {
	if tag, ok := dcm.TagByKeyword(s); ok {
		return tag, nil
	}
	if len(s) == 8 {
		if v, err := strconv.ParseUint(s, 16, 32); err == nil {
			return dcm.Tag(v), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
