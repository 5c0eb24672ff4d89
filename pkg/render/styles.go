package render

const baseCSS = `
@page { size: A4; margin: 16mm 14mm; }
* { box-sizing: border-box; }
body { margin: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; }
.resume { max-width: 800px; margin: 0 auto; padding: 24px; }
.resume-header { margin-bottom: 12px; }
.name { margin: 0 0 4px; }
.titles { margin: 0 0 4px; }
.contacts { margin: 0; }
.contacts a { color: inherit; text-decoration: none; }
.section { margin-top: 14px; page-break-inside: avoid; }
.section h2 { margin: 0 0 6px; }
.section h3 { margin: 8px 0 2px; font-size: 1em; }
.section p { margin: 2px 0; }
.section ul { margin: 2px 0 2px 18px; padding: 0; }
.section li { margin: 1px 0; }
.spacer { height: 6px; }
`

var styleSheets = map[Style]string{
	StyleModern: baseCSS + `
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 10.5pt; color: #1f2933; line-height: 1.45; }
.resume-header { border-bottom: 3px solid #2563eb; padding-bottom: 10px; }
.name { font-size: 24pt; color: #1e3a8a; letter-spacing: 0.5px; }
.titles { font-size: 12pt; color: #2563eb; font-weight: 600; }
.contacts { color: #52606d; font-size: 9.5pt; }
.section h2 { font-size: 12pt; text-transform: uppercase; color: #1e3a8a; border-bottom: 1px solid #cbd2d9; padding-bottom: 2px; }
.section h3 { color: #2563eb; }
`,
	StyleClassic: baseCSS + `
body { font-family: Georgia, "Times New Roman", serif; font-size: 11pt; color: #111; line-height: 1.4; }
.resume-header { text-align: center; }
.name { font-size: 22pt; font-variant: small-caps; }
.titles { font-style: italic; }
.contacts { font-size: 10pt; }
.section h2 { font-size: 12pt; font-variant: small-caps; border-bottom: 1px solid #111; }
`,
	StyleMinimal: baseCSS + `
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; font-size: 10pt; color: #222; line-height: 1.5; }
.name { font-size: 18pt; font-weight: 500; }
.titles, .contacts { color: #555; }
.section h2 { font-size: 10.5pt; font-weight: 600; letter-spacing: 1px; text-transform: uppercase; color: #555; }
`,
}
