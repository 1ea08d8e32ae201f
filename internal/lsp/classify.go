package lsp

import (
	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/semver"
)

// depStatus is the classification every projector agrees on.
type depStatus int

const (
	// statusNoData: nothing known yet and nothing pending.
	statusNoData depStatus = iota
	// statusLoading: a fetch for this dependency is in flight.
	statusLoading
	// statusUpToDate: the effective version matches the latest stable.
	statusUpToDate
	// statusLockBehind: the requirement already permits the latest stable
	// but the lock file pins an older version; a lock refresh (not a
	// manifest edit) brings it current.
	statusLockBehind
	// statusOutdated: the requirement does not permit the latest stable;
	// a manifest edit is required.
	statusOutdated
	// statusUnknown: the registry confirmed the package does not exist.
	statusUnknown
	// statusYanked: the pinned version was yanked upstream.
	statusYanked
)

// classification carries the status plus the facts projectors render.
type classification struct {
	status      depStatus
	latest      deps.VersionInfo // valid unless statusNoData/statusUnknown/statusLoading
	hasLatest   bool
	lockVersion string
	hasLock     bool
}

// classify runs the three-way comparison between the requirement, the
// resolved lock version, and the cached latest stable version.
func classify(state DocumentState, d deps.Dependency) classification {
	name := state.Eco.Canonical(d.Name)

	c := classification{}
	c.lockVersion, c.hasLock = state.ResolvedLock.Resolved(name)

	if state.NotFound[name] {
		c.status = statusUnknown
		return c
	}

	c.latest, c.hasLatest = state.CachedLatest[name]

	if c.hasLock && isYanked(state.VersionLists[name], c.lockVersion) {
		c.status = statusYanked
		return c
	}

	if !c.hasLatest {
		if state.Loading[name] {
			c.status = statusLoading
		} else {
			c.status = statusNoData
		}
		return c
	}

	flavor := state.Eco.Flavor
	permitsLatest := d.Requirement == "" || semver.Satisfies(d.Requirement, c.latest.Version, flavor)

	if c.hasLock {
		switch {
		case semver.CompareStrings(c.lockVersion, c.latest.Version) >= 0:
			c.status = statusUpToDate
		case permitsLatest:
			c.status = statusLockBehind
		default:
			c.status = statusOutdated
		}
		return c
	}

	// No lock entry: the manifest text is all there is. The dependency is
	// current only when the written requirement already names the latest
	// version; a permitted-but-older pin still warrants an update edit.
	switch {
	case !permitsLatest:
		c.status = statusOutdated
	case requirementCurrent(d.Requirement, c.latest.Version):
		c.status = statusUpToDate
	default:
		c.status = statusOutdated
	}
	return c
}

// requirementCurrent reports whether the version named inside the
// requirement text is at least the latest stable, at the precision the
// requirement spells out: "1" is current against 1.40.0, "1.0.100" is
// not current against 1.0.210. Requirements without a version literal
// (wildcards, "any") count as current when they permit the latest at all.
func requirementCurrent(requirement, latest string) bool {
	base, ok := requirementBase(requirement)
	if !ok {
		return true
	}
	bv, err1 := semver.Parse(base)
	lv, err2 := semver.Parse(latest)
	if err1 != nil || err2 != nil {
		return true
	}
	parts := [3][2]int{{bv.Major, lv.Major}, {bv.Minor, lv.Minor}, {bv.Patch, lv.Patch}}
	for i := 0; i < bv.Parts && i < 3; i++ {
		if parts[i][0] < parts[i][1] {
			return false
		}
		if parts[i][0] > parts[i][1] {
			return true
		}
	}
	return true
}

// requirementBase extracts the first version literal from a requirement
// string ("^1.0.100" -> "1.0.100", ">= 2.2, < 4" -> "2.2").
func requirementBase(requirement string) (string, bool) {
	start := -1
	for i := 0; i < len(requirement); i++ {
		c := requirement[i]
		if c >= '0' && c <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}
	end := start
	for end < len(requirement) {
		c := requirement[end]
		if c >= '0' && c <= '9' || c == '.' {
			end++
			continue
		}
		break
	}
	return requirement[start:end], true
}

func isYanked(versions []deps.VersionInfo, version string) bool {
	for _, v := range versions {
		if v.Version == version {
			return v.Yanked
		}
	}
	return false
}
