package mcpserver

// EmbedSyntaxContract describes the canonical embed token syntax that
// LLM consumers should follow when writing or editing image embeds.
const EmbedSyntaxContract = `# Image Embed Token Syntax

Documents reference vault images with wiki-style embed tokens. Every
token an editing tool writes MUST use one of the two encodings below.

## Pipe encoding (no caption)

` + "```" + `
![[name]]
![[name|alignment]]
![[name|dark|alignment]]
![[name|alignment|width]]
![[name|dark|alignment|width|height]]
` + "```" + `

## Hash encoding (with caption)

` + "```" + `
![[name#alignment|caption]]
![[name#alignment#dark|caption]]
![[name#alignment|caption|width]]
![[name#alignment#dark|caption|width|height]]
` + "```" + `

## Rules

1. **Alignment** is one of ` + "`" + `center` + "`" + `, ` + "`" + `left` + "`" + `, ` + "`" + `right` + "`" + `. Missing alignment
   means center.
2. **The caption alone selects the encoding.** A token with a caption is
   always written in hash form; clearing the caption switches it back to
   pipe form.
3. **Sizes** are pixel integers. Width may appear alone; height never
   appears without width. A missing height keeps the aspect ratio.
4. **` + "`" + `dark` + "`" + `** marks the image for inversion in dark color schemes.
5. **Names** may be bare file names (` + "`" + `pic.png` + "`" + `) or vault-relative paths
   (` + "`" + `assets/pic.png` + "`" + `). Keep the style already used in the document.
6. Plain links to an image use ` + "`" + `[[name]]` + "`" + ` without the leading ` + "`" + `!` + "`" + `;
   they reference the file but do not render it.
7. Standard Markdown images ` + "`" + `![alt](path)` + "`" + ` are also recognized, with
   spaces in paths written as ` + "`" + `%20` + "`" + `.

## Examples

` + "```" + `markdown
![[diagram.png]]
![[diagram.png|left|300]]
![[assets/photo.jpg|dark|right|480|320]]
![[chart.svg#center|Quarterly results|600]]
` + "```" + `
`
