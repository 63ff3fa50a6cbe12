package web

import (
	"bytes"
	"html/template"
	"net/http"
)

type indexData struct {
	BaseURL string
	Files   []string
	Flashes []string
	QR      template.URL
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, names []string) {
	data := indexData{
		BaseURL: s.baseURL,
		Files:   names,
		Flashes: s.popFlashes(w, r),
		QR:      s.qr,
	}
	// Render to a buffer first so a template failure can still become
	// a clean 500.
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>LAN file share</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            max-width: 700px;
            margin: 0 auto;
            padding: 20px 15px;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Arial, sans-serif;
            line-height: 1.5;
            color: #333;
        }

        h1 {
            font-size: 1.8rem;
            margin-bottom: 10px;
        }

        .address {
            color: #666;
            font-size: 0.9rem;
            margin-bottom: 20px;
        }

        .flash {
            padding: 12px 15px;
            margin-bottom: 15px;
            border: 1px solid #dc3545;
            border-radius: 4px;
            color: #dc3545;
            background-color: #fff5f5;
            font-size: 0.95rem;
        }

        .panel {
            padding: 20px 15px;
            border: 1px solid #eee;
            border-radius: 8px;
            margin-bottom: 20px;
        }

        .panel h2 {
            font-size: 1.2rem;
            margin-bottom: 15px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th, td {
            padding: 10px 8px;
            text-align: left;
            border-bottom: 1px solid #ddd;
            font-size: 0.9rem;
        }

        th {
            background-color: #f8f9fa;
            font-weight: 600;
        }

        a.file-link {
            color: #4285f4;
            text-decoration: none;
        }

        a.delete-link {
            color: #dc3545;
            text-decoration: none;
            font-size: 0.85rem;
        }

        .empty-message {
            text-align: center;
            color: #666;
            padding: 20px;
            border: 1px dashed #ddd;
            border-radius: 4px;
        }

        input[type=file] {
            margin: 10px 0;
            width: 100%;
            font-size: 1rem;
        }

        select {
            margin: 10px 0;
            padding: 8px;
            font-size: 0.95rem;
        }

        button {
            padding: 10px 30px;
            background-color: #4285f4;
            color: white;
            border: none;
            border-radius: 4px;
            cursor: pointer;
            font-size: 1rem;
        }

        button:hover {
            background-color: #3367d6;
        }

        .qr {
            text-align: center;
            margin: 20px 0;
        }

        .qr img {
            width: 160px;
            height: 160px;
        }
    </style>
</head>
<body>
    <h1>LAN file share</h1>
    <div class="address">{{.BaseURL}}</div>

    {{range .Flashes}}<div class="flash">{{.}}</div>{{end}}

    <div class="panel">
        <h2>Files</h2>
        {{if .Files}}
        <table>
            <tr>
                <th>Filename</th>
                <th></th>
            </tr>
            {{range .Files}}
            <tr>
                <td><a class="file-link" href="/files/{{.}}">{{.}}</a></td>
                <td><a class="delete-link" href="/delete/{{.}}">delete</a></td>
            </tr>
            {{end}}
        </table>
        {{else}}
        <div class="empty-message">No files yet. Upload something below.</div>
        {{end}}
    </div>

    <div class="panel">
        <h2>Upload</h2>
        <form action="/upload" method="post" enctype="multipart/form-data">
            <input type="file" name="file" multiple>
            <br>
            <label for="duplicate-file-behavior">If a filename already exists:</label>
            <select name="duplicate-file-behavior" id="duplicate-file-behavior">
                <option value="fail">fail</option>
                <option value="skip">skip</option>
                <option value="keep">keep both</option>
                <option value="overwrite">overwrite</option>
            </select>
            <br>
            <button type="submit">Upload</button>
        </form>
    </div>

    {{if .QR}}
    <div class="qr">
        <img src="{{.QR}}" alt="QR code for {{.BaseURL}}">
        <div class="address">Scan to open this page on your phone</div>
    </div>
    {{end}}
</body>
</html>
`))
