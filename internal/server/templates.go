package server

import (
	"html/template"
)

const baseStyle = `body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
.container { margin: 20px 0; }
.file-item { margin: 5px 0; }
.size { color: #666; margin-left: 8px; }
.log-link { margin-top: 20px; display: inline-block; }`

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
  <title>Excel Splitter</title>
  <style>` + baseStyle + `</style>
</head>
<body>
  <h1>Upload Excel File to Split</h1>
  <div class="container">
    <form method="post" enctype="multipart/form-data">
      <div style="margin-bottom: 15px;">
        <label for="file">Select Excel file (.xlsx or .xls, up to {{.MaxUpload}}):</label><br>
        <input type="file" name="file" id="file" accept=".xlsx,.xls">
      </div>
      <div style="margin-bottom: 15px;">
        <label for="max_columns">Max columns per file:</label><br>
        <input type="number" name="max_columns" id="max_columns" value="{{.MaxColumns}}" min="1">
      </div>
      <input type="submit" value="Upload and Split">
    </form>
  </div>
  <div class="log-link"><a href="/logs" target="_blank">View Logs</a></div>
</body>
</html>
`))

var resultsTemplate = template.Must(template.New("results").Parse(`<!doctype html>
<html>
<head>
  <title>Download Split Files</title>
  <style>` + baseStyle + `</style>
</head>
<body>
  <h1>Split Files Ready for Download</h1>
  <p>Your Excel file has been split into {{len .Files}} parts:</p>
  <div class="container">
    <ul>
      {{range .Files}}<li class="file-item"><a href="/downloads/{{.Name}}">{{.Name}}</a><span class="size">{{.Size}}</span></li>
      {{end}}
    </ul>
    <p><a href="/downloads.zip">Download all files (ZIP)</a></p>
  </div>
  <p><a href="/">Split another file</a></p>
  <div class="log-link"><a href="/logs" target="_blank">View Detailed Logs</a></div>
</body>
</html>
`))

var logsTemplate = template.Must(template.New("logs").Parse(`<!doctype html>
<html>
<head>
  <title>Application Logs</title>
  <style>
    body { font-family: monospace; margin: 0; padding: 20px; background-color: #f5f5f5; }
    .container { max-width: 1200px; margin: 0 auto; background: white; padding: 20px; border-radius: 5px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; white-space: pre-wrap; }
    th { background-color: #f2f2f2; }
    .timestamp { color: #666; min-width: 180px; }
    .level-debug { color: #666; }
    .level-warn { color: #cc8400; }
    .level-error { color: #d9534f; font-weight: bold; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Application Logs</h1>
    <p><button onclick="location.reload()">Refresh</button> <a href="/">Back to Upload</a></p>
    <table>
      <tr><th>Timestamp</th><th>Level</th><th>Message</th><th>Details</th></tr>
      {{range .Entries}}<tr class="level-{{.Level}}"><td class="timestamp">{{.Time.Format "2006-01-02 15:04:05"}}</td><td>{{.Level}}</td><td>{{.Message}}</td><td>{{.Fields}}</td></tr>
      {{end}}
    </table>
  </div>
  <script>window.onload = function() { window.scrollTo(0, document.body.scrollHeight); };</script>
</body>
</html>
`))
