package handler

import (
	"encoding/json"
	"html/template"
	"net/http"

	"torrentier/logging"
)

var configureTemplate = template.Must(template.New("configure").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Torrentier</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; background: #1a1a2e; color: #eee; }
h1 { color: #e94560; }
fieldset { border: 1px solid #444; border-radius: 6px; margin-bottom: 1rem; }
label { display: block; margin: .5rem 0 .2rem; }
input, textarea { width: 100%; padding: .4rem; border-radius: 4px; border: 1px solid #555; background: #16213e; color: #eee; }
button { background: #e94560; color: #fff; border: 0; padding: .6rem 1.2rem; border-radius: 4px; cursor: pointer; font-size: 1rem; }
a { color: #e94560; word-break: break-all; }
.hint { font-size: .8rem; color: #999; }
</style>
</head>
<body>
<h1>Torrentier</h1>
<fieldset>
<legend>Metadata</legend>
<label for="tmdb_key">TMDB API key (required)</label>
<input id="tmdb_key" type="text">
</fieldset>
<fieldset>
<legend>Debrid</legend>
<label for="alldebrid_key">AllDebrid API key</label>
<input id="alldebrid_key" type="text">
<label for="debridlink_key">Debrid-Link API key</label>
<input id="debridlink_key" type="text">
<label for="torbox_key">TorBox API key</label>
<input id="torbox_key" type="text">
</fieldset>
<fieldset>
<legend>Trackers</legend>
<label for="trackers">UNIT3D trackers, one per line as <code>url token</code></label>
<textarea id="trackers" rows="3" placeholder="https://tracker.example abcdef123"></textarea>
<label for="ygg_passkey">YGG passkey</label>
<input id="ygg_passkey" type="text">
<label for="ygg_url">YGG API base URL <span class="hint">(leave empty for the default)</span></label>
<input id="ygg_url" type="text">
<label for="sharewood_passkey">Sharewood passkey</label>
<input id="sharewood_passkey" type="text">
<label for="abn_username">ABN username</label>
<input id="abn_username" type="text">
<label for="abn_password">ABN password</label>
<input id="abn_password" type="password">
</fieldset>
{{if .QbitEnabled}}
<fieldset>
<legend>Local qBittorrent</legend>
<label for="qbit_host">WebUI URL</label>
<input id="qbit_host" type="text" placeholder="http://192.168.1.10:8080">
<label for="qbit_username">Username</label>
<input id="qbit_username" type="text">
<label for="qbit_password">Password</label>
<input id="qbit_password" type="password">
<label for="qbit_public_url">Public download URL <span class="hint">(HTTP server exposing the download directory)</span></label>
<input id="qbit_public_url" type="text" placeholder="http://192.168.1.10:8081">
</fieldset>
{{end}}
<button onclick="install()">Install</button>
<p id="link"></p>
<script>
const prefill = {{.Prefill}};
const text = (id) => document.getElementById(id);
function load() {
  if (!prefill) return;
  for (const id of ["tmdb_key", "alldebrid_key", "debridlink_key", "torbox_key", "ygg_passkey", "ygg_url", "sharewood_passkey", "abn_username", "abn_password"]) {
    if (prefill[id]) text(id).value = prefill[id];
  }
  if (prefill.trackers) {
    text("trackers").value = prefill.trackers.map((t) => t.url + " " + t.token).join("\n");
  }
  if (prefill.qbittorrent && text("qbit_host")) {
    text("qbit_host").value = prefill.qbittorrent.host || "";
    text("qbit_username").value = prefill.qbittorrent.username || "";
    text("qbit_password").value = prefill.qbittorrent.password || "";
    text("qbit_public_url").value = prefill.qbittorrent.public_url || "";
  }
}
function install() {
  const cfg = { tmdb_key: text("tmdb_key").value.trim() };
  if (!cfg.tmdb_key) { alert("A TMDB API key is required."); return; }
  for (const id of ["alldebrid_key", "debridlink_key", "torbox_key", "ygg_passkey", "ygg_url", "sharewood_passkey", "abn_username", "abn_password"]) {
    const v = text(id).value.trim();
    if (v) cfg[id] = v;
  }
  const trackers = text("trackers").value.split("\n")
    .map((l) => l.trim().split(/\s+/))
    .filter((p) => p.length === 2)
    .map((p) => ({ url: p[0], token: p[1] }));
  if (trackers.length) cfg.trackers = trackers;
  if (text("qbit_host") && text("qbit_host").value.trim()) {
    cfg.qbittorrent = {
      host: text("qbit_host").value.trim(),
      username: text("qbit_username").value.trim(),
      password: text("qbit_password").value,
      public_url: text("qbit_public_url").value.trim(),
    };
  }
  const encoded = btoa(JSON.stringify(cfg));
  const base = window.location.host + "/" + encoded + "/manifest.json";
  document.getElementById("link").innerHTML =
    '<a href="stremio://' + base + '">Open in Stremio</a><br>' +
    window.location.protocol + "//" + base;
}
load();
</script>
</body>
</html>
`))

type configurePage struct {
	QbitEnabled bool
	Prefill     template.JS
}

// HandlerConfigure renders the configuration page. When reached through an
// existing install ("/{config}/configure") the form is prefilled.
func (a *Addon) HandlerConfigure(w http.ResponseWriter, r *http.Request) {
	page := configurePage{QbitEnabled: a.qbitEnabled, Prefill: "null"}
	if encoded := r.PathValue("config"); encoded != "" {
		if cfg, err := DecodeConfig(encoded); err == nil {
			if raw, err := json.Marshal(cfg); err == nil {
				page.Prefill = template.JS(raw)
			}
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := configureTemplate.Execute(w, page); err != nil {
		logging.Error().Err(err).Msg("failed to render configure page")
	}
}
