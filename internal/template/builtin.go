package template

// builtins are the stock note templates. Each is a complete note source:
// YAML frontmatter followed by a markdown body, with Go template actions.
var builtins = map[string]string{
	"zettel": `---
title: {{.Title}}
id: {{.UUID}}
created: {{.Date}}
tags: []
status: draft
---

# {{.Title}}

`,
	"daily": `---
title: {{.Date}}
id: {{.UUID}}
created: {{.Date}}
tags: [daily]
status: active
---

# {{.Date}}

## Log

- {{.Time}}

## Tasks

- [ ]
`,
	"meeting": `---
title: {{.Title}}
id: {{.UUID}}
created: {{.Date}}
tags: [meeting]
status: active
---

# {{.Title}}

**Date:** {{.Date}} {{.Time}}
**Attendees:**

## Agenda

## Notes

## Action items

- [ ]
`,
	"book": `---
title: {{.Title}}
id: {{.UUID}}
created: {{.Date}}
tags: [book]
status: draft
author: "{{index .Vars "author"}}"
---

# {{.Title}}

## Summary

## Highlights

## Takeaways

`,
	"project": `---
title: {{.Title}}
id: {{.UUID}}
created: {{.Date}}
tags: [project]
status: active
---

# {{.Title}}

## Goal

## Milestones

- [ ]

## Log

`,
}
