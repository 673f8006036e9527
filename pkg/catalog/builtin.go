package catalog

import (
	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/builder"
)

// The built-in templates model the development workflows the agent is
// expected to follow. Their matchers assume a host exposing bash, edit,
// and write tools whose inputs carry command and file_path fields;
// deployments with other tool surfaces register their own definitions

// BranchWork models feature or issue work on a branch, from checkout
// through merge
func BranchWork() *api.Definition {
	return builder.NewFlow("Branch Work").
		WithSteps(
			builder.NewStep("Create Branch").
				WithPhase("setup").Required().Blocking(),
			builder.NewStep("Implement Changes").WithID("implement").
				WithPhase("build").Repeatable(),
			builder.NewStep("Commit Changes").WithID("commit").
				WithPhase("build").Required().Repeatable(),
			builder.NewStep("Push Branch").WithID("push").
				WithPhase("publish").Required().Blocking(),
			builder.NewStep("Open Pull Request").WithID("open-pr").
				WithPhase("publish").Required().Blocking(),
			builder.NewStep("Checks Pass").
				WithPhase("publish").Required().DependsOn("open-pr"),
			builder.NewStep("Merge").
				WithPhase("land").Required().DependsOn("checks-pass"),
			builder.NewStep("Clean Up Branch").WithID("cleanup").
				WithPhase("land"),
		).
		WithCompletionStep("merge").
		BlockingOnSessionEnd().
		MustDefinition().
		WithMatcher(MustRules(RuleTable{
			"create-branch": {
				{Tool: "bash", Path: "command",
					Pattern: `\bgit (checkout -b|switch -c)\b`},
			},
			"implement": {
				{Tool: "edit"},
				{Tool: "write"},
			},
			"commit": {
				{Tool: "bash", Path: "command", Pattern: `\bgit commit\b`},
			},
			"push": {
				{Tool: "bash", Path: "command", Pattern: `\bgit push\b`},
			},
			"open-pr": {
				{Tool: "bash", Path: "command", Pattern: `\bgh pr create\b`},
			},
			"checks-pass": {
				{Tool: "bash", Path: "command", Pattern: `\bgh pr checks\b`},
			},
			"merge": {
				{Tool: "bash", Path: "command", Pattern: `\bgh pr merge\b`},
			},
			"cleanup": {
				{Tool: "bash", Path: "command",
					Pattern: `\bgit branch (-d|-D|--delete)\b`},
			},
		}))
}

// Release models cutting and publishing a release
func Release() *api.Definition {
	return builder.NewFlow("Release").
		WithSteps(
			builder.NewStep("Prepare Release").WithID("prepare").
				WithPhase("stage").Required().Blocking(),
			builder.NewStep("Update Changelog").WithID("changelog").
				WithPhase("stage"),
			builder.NewStep("Tag Release").WithID("tag").
				WithPhase("ship").Required().DependsOn("prepare"),
			builder.NewStep("Publish Artifacts").WithID("publish").
				WithPhase("ship").Required().DependsOn("tag"),
			builder.NewStep("Verify Release").WithID("verify").
				WithPhase("wrap").ParallelWith("announce"),
			builder.NewStep("Announce Release").WithID("announce").
				WithPhase("wrap").ParallelWith("verify"),
		).
		WithCompletionStep("publish").
		BlockingOnSessionEnd().
		MustDefinition().
		WithMatcher(MustRules(RuleTable{
			"prepare": {
				{Tool: "bash", Path: "command",
					Pattern: `\b(npm|yarn|pnpm) version\b`},
				{Tool: "edit", Path: "file_path", Pattern: `(?i)version`},
			},
			"changelog": {
				{Tool: "edit", Path: "file_path", Pattern: `(?i)changelog`},
				{Tool: "write", Path: "file_path", Pattern: `(?i)changelog`},
			},
			"tag": {
				{Tool: "bash", Path: "command", Pattern: `\bgit tag\b`},
			},
			"publish": {
				{Tool: "bash", Path: "command",
					Pattern: `\b(npm publish|goreleaser release|gh release create)\b`},
			},
			"verify": {
				{Tool: "bash", Path: "command",
					Pattern: `\b(npm view|gh release view)\b`},
			},
			// announce completes through explicit calls only
		}))
}

// Hotfix models urgent fixes; its matching is scripted because test
// commands mean different steps at different points in the flow
func Hotfix() *api.Definition {
	return builder.NewFlow("Hotfix").
		WithSteps(
			builder.NewStep("Reproduce Issue").WithID("reproduce").
				WithPhase("triage").WithCondition("has_repro"),
			builder.NewStep("Apply Fix").WithID("fix").
				WithPhase("fix").Required(),
			builder.NewStep("Verify Fix").
				WithPhase("fix").Required().DependsOn("fix"),
			builder.NewStep("Backport").
				WithPhase("wrap"),
		).
		WithCompletionStep("verify-fix").
		BlockingOnSessionEnd().
		MustDefinition().
		WithMatcher(MustLuaMatcher(hotfixScript))
}

const hotfixScript = `
if tool == "edit" or tool == "write" then
  return step == "fix"
end
if tool ~= "bash" then
  return false
end
local cmd = input.command or ""
if step == "reproduce" then
  return cmd:find("test -run", 1, true) ~= nil
    or cmd:find("pytest -k", 1, true) ~= nil
end
if step == "verify-fix" then
  return cmd:find("go test ./...", 1, true) ~= nil
    or cmd:find("make test", 1, true) ~= nil
end
if step == "backport" then
  return cmd:find("git cherry-pick", 1, true) ~= nil
end
return false
`

// CodeReview models responding to review feedback on an open request
func CodeReview() *api.Definition {
	return builder.NewFlow("Code Review").
		WithSteps(
			builder.NewStep("Fetch Comments").
				WithPhase("triage").Required().Blocking(),
			builder.NewStep("Address Comments").
				WithPhase("respond").Required().Repeatable().
				ParallelWith("reply"),
			builder.NewStep("Reply to Reviewers").WithID("reply").
				WithPhase("respond").Repeatable().
				ParallelWith("address-comments"),
			builder.NewStep("Re-request Review").WithID("re-request").
				WithPhase("wrap").Required(),
		).
		WithCompletionStep("re-request").
		MustDefinition().
		WithMatcher(MustRules(RuleTable{
			"fetch-comments": {
				{Tool: "bash", Path: "command", Pattern: `\bgh pr view\b`},
				{Tool: "bash", Path: "command", Pattern: `\bgh api\b.*comments`},
			},
			"address-comments": {
				{Tool: "edit"},
				{Tool: "write"},
			},
			"reply": {
				{Tool: "bash", Path: "command", Pattern: `\bgh pr comment\b`},
			},
			"re-request": {
				{Tool: "bash", Path: "command", Pattern: `\bgh pr ready\b`},
				{Tool: "bash", Path: "command",
					Pattern: `\bgh pr edit\b.*--add-reviewer`},
			},
		}))
}
