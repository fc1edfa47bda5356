package output

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.View.Title}} | Sitetrack</title>
<style>
:root {
  --bg: #fff; --fg: #1a1a2e; --card-bg: #f8f9fa; --border: #dee2e6;
  --table-alt: #f1f3f5; --hover: #e9ecef; --muted: #6c757d; --accent: #0d6efd;
  --overdue: #d0021b; --week: #f5a623; --month: #4a90e2; --upcoming: #7ed321; --tbd: #9b9b9b;
  --success: #198754; --info: #0dcaf0; --warning: #ffc107; --danger: #dc3545; --secondary: #6c757d;
}
@media (prefers-color-scheme: dark) {
  :root {
    --bg: #1a1a2e; --fg: #e9ecef; --card-bg: #16213e; --border: #495057;
    --table-alt: #0f3460; --hover: #1a1a4e; --muted: #adb5bd; --accent: #5b9aff;
  }
}
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: var(--bg); color: var(--fg); line-height: 1.5; padding: 1rem; max-width: 1400px; margin: 0 auto; }
nav { display: flex; flex-wrap: wrap; gap: .75rem; margin-bottom: 1rem; font-size: .875rem; }
nav a { color: var(--accent); text-decoration: none; }
nav a.active { font-weight: 700; color: var(--fg); }
header { margin-bottom: 1.5rem; }
header h1 { font-size: 1.5rem; margin-bottom: .25rem; }
header p { color: var(--muted); font-size: .875rem; }
.banner { background: var(--danger); color: #fff; border-radius: 6px; padding: .5rem .75rem; margin-bottom: 1rem; font-size: .875rem; }
.cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(120px, 1fr)); gap: .75rem; margin-bottom: 1.5rem; }
.card { background: var(--card-bg); border: 1px solid var(--border); border-radius: 8px; padding: .75rem; text-align: center; }
.card .value { font-size: 1.5rem; font-weight: 700; }
.card .label { font-size: .75rem; color: var(--muted); text-transform: uppercase; }
.card-overdue .value { color: var(--overdue); }
.card-week .value { color: var(--week); }
.card-month .value { color: var(--month); }
.card-upcoming .value { color: var(--upcoming); }
.card-tbd .value { color: var(--tbd); }
.charts { display: grid; grid-template-columns: repeat(2, 1fr); gap: 1rem; margin-bottom: 1.5rem; }
@media (max-width: 768px) { .charts { grid-template-columns: 1fr; } }
.chart-box, .panel { background: var(--card-bg); border: 1px solid var(--border); border-radius: 8px; padding: 1rem; margin-bottom: 1rem; }
.chart-box h3, .panel h3 { font-size: .875rem; margin-bottom: .5rem; }
.bar-row { display: grid; grid-template-columns: 10rem 1fr 4rem; gap: .5rem; align-items: center; font-size: .75rem; margin-bottom: .25rem; }
.bar-track { background: var(--border); border-radius: 3px; height: .75rem; }
.bar-fill { height: 100%; border-radius: 3px; }
.filters { display: flex; flex-wrap: wrap; gap: .5rem; margin-bottom: 1rem; align-items: center; }
.filters select, .filters input { padding: .375rem .5rem; border: 1px solid var(--border); border-radius: 4px; background: var(--card-bg); color: var(--fg); font-size: .8125rem; }
.filters input[type=text] { min-width: 180px; }
table { width: 100%; border-collapse: collapse; font-size: .8125rem; }
thead { position: sticky; top: 0; background: var(--card-bg); }
th, td { padding: .5rem .625rem; text-align: left; border-bottom: 1px solid var(--border); }
tr:nth-child(even) { background: var(--table-alt); }
tr:hover { background: var(--hover); }
.status { font-weight: 700; }
.status-overdue { color: var(--overdue); }
.status-week { color: var(--week); }
.status-month { color: var(--month); }
.status-upcoming { color: var(--upcoming); }
.status-tbd { color: var(--tbd); }
.badge { padding: .125rem .375rem; border-radius: 3px; font-size: .75rem; color: #fff; }
.badge-success { background: var(--success); }
.badge-info { background: var(--info); }
.badge-warning { background: var(--warning); color: #000; }
.badge-danger { background: var(--danger); }
.badge-secondary { background: var(--secondary); }
.calendar { display: grid; grid-template-columns: repeat(7, 1fr); gap: 2px; font-size: .75rem; }
.calendar .dow { font-weight: 700; text-align: center; }
.calendar .day { min-height: 4.5rem; border: 1px solid var(--border); padding: .25rem; }
.calendar .today { border-color: var(--accent); border-width: 2px; }
.calendar .more { color: var(--muted); }
.gantt { position: relative; }
.gantt-row { display: grid; grid-template-columns: 14rem 1fr; gap: .5rem; font-size: .75rem; margin-bottom: 2px; }
.gantt-track { position: relative; height: 1rem; background: var(--border); }
.gantt-bar { position: absolute; top: 0; height: 100%; border-radius: 2px; }
.gantt-today { position: absolute; top: 0; bottom: 0; width: 2px; background: var(--danger); }
.zones { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: .75rem; }
.dot { display: inline-block; width: .625rem; height: .625rem; border-radius: 50%; margin-right: .25rem; }
.empty { padding: 2rem; text-align: center; color: var(--muted); }
</style>
</head>
<body>
{{- $v := .View}}
{{- if .Opts.Pages}}
<nav>
  {{- range .Opts.Pages}}
  <a href="{{$.Opts.BasePath}}{{.Name}}"{{if eq .Name $v.Page}} class="active"{{end}}>{{.Title}}</a>
  {{- end}}
</nav>
{{- end}}
<header>
  <h1>{{$v.Title}}</h1>
  <p>{{$v.Today.Format "Monday, January 2, 2006"}} &middot; {{$v.Stats.Total}} records &middot; generated {{.GeneratedAt}}</p>
</header>
{{- if $v.Error}}
<div class="banner" role="alert">Source error: {{$v.Error}}{{if $v.Stale}} (showing last snapshot{{if not $v.FetchedAt.IsZero}} from {{$v.FetchedAt.Format "2006-01-02 15:04"}}{{end}}){{end}}</div>
{{- end}}

<section class="cards" id="summary">
  <div class="card"><div class="value">{{$v.FilteredStats.Total}}</div><div class="label">Shown</div></div>
  {{- range .Cards}}
  <div class="card card-{{.Key}}"><div class="value">{{.Count}}</div><div class="label">{{.Label}}</div></div>
  {{- end}}
  {{- if $v.Stats.Milestones}}<div class="card"><div class="value">{{$v.FilteredStats.Milestones}}</div><div class="label">Milestones</div></div>{{end}}
  {{- if $v.Stats.Critical}}<div class="card"><div class="value">{{$v.FilteredStats.Critical}}</div><div class="label">Critical</div></div>{{end}}
</section>

{{- if .Opts.Pages}}
<form class="filters" method="get">
  <input type="text" name="q" placeholder="Search" value="{{$v.Filter.Search}}">
  {{- range $v.FilterOptions}}
  <select name="{{.Field}}">
    <option value="">All {{.Field}}</option>
    {{- $sel := .Selected}}
    {{- range .Values}}
    <option value="{{.}}"{{if eq . $sel}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  {{- end}}
  <select name="status">
    <option value="">Any status</option>
    {{- range .Statuses}}
    <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
    {{- end}}
  </select>
  <select name="window">
    <option value="">All Dates</option>
    {{- range .Windows}}
    <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
    {{- end}}
  </select>
  <button type="submit">Apply</button>
  <a href="?">Clear</a>
  <a href="{{.ExportURL}}">Export CSV</a>
</form>
{{- end}}

{{- with $v.Procurement}}
<section class="cards" id="procurement">
  {{- if .PurchaseOrders}}
  <div class="card"><div class="value">{{.PurchaseOrders}}</div><div class="label">Purchase Orders</div></div>
  <div class="card"><div class="value">{{money .TotalValue}}</div><div class="label">Total Value</div></div>
  {{- end}}
  {{- if .Shipments}}
  <div class="card"><div class="value">{{.Shipments}}</div><div class="label">Shipments</div></div>
  <div class="card"><div class="value">{{.Delivered}} ({{pct .DeliveredRate}})</div><div class="label">Delivered</div></div>
  {{- end}}
</section>
{{- end}}

{{- if $v.Charts.Status.Total}}
<section class="charts" id="charts">
  {{- range (list $v.Charts.Status $v.Charts.Category)}}
  <div class="chart-box">
    <h3>{{.Title}}</h3>
    {{- range .Slices}}
    <div class="bar-row"><span>{{.Label}}</span><div class="bar-track"><div class="bar-fill" style="width: {{.Percent}}%; background: {{.Color}}"></div></div><span>{{.Count}} ({{pct .Percent}})</span></div>
    {{- end}}
  </div>
  {{- end}}
</section>
{{- end}}

{{- with $v.Schedule}}
<section id="schedule">
  <div class="panel">
    <h3>Schedule Health: {{.Health.Label}} ({{pct .Health.OnTime}} on time)</h3>
    <p>{{.Health.Complete}} complete &middot; {{.Health.InProgress}} in progress &middot; {{.Health.NotStarted}} not started &middot; {{.Health.Overdue}} overdue</p>
  </div>
  {{- if .Timeline.Bars}}
  <div class="panel gantt">
    <h3>Timeline {{.Timeline.Start}} to {{.Timeline.End}}</h3>
    {{- $days := .Timeline.Days}}{{$today := .Timeline.TodayOffset}}
    {{- range .Timeline.Bars}}
    <div class="gantt-row"><span title="{{.Name}}">{{.Name}}</span><div class="gantt-track"><div class="gantt-bar" style="left: {{percentOf .Offset $days}}%; width: {{percentOf .Span $days}}%; background: {{.Color}}"></div><div class="gantt-today" style="left: {{percentOf $today $days}}%"></div></div></div>
    {{- end}}
  </div>
  {{- end}}
  {{- if .UpcomingMilestones}}
  <div class="panel">
    <h3>Upcoming Milestones</h3>
    <table><thead><tr><th>Finish</th><th>When</th><th>Milestone</th><th>Status</th></tr></thead><tbody>
    {{- range .UpcomingMilestones}}
    <tr><td>{{.Finish}}</td><td>{{.Urgency}}</td><td>{{.Name}}</td><td><span class="badge badge-{{.Badge.Tone}}">{{.Badge.Label}}</span></td></tr>
    {{- end}}
    </tbody></table>
  </div>
  {{- end}}
  {{- if .KeyActivities}}
  <div class="panel">
    <h3>Key Activities ({{.KeyActivityCount}})</h3>
    <table><thead><tr><th>Finish</th><th>When</th><th>Activity</th><th>Category</th><th>Status</th></tr></thead><tbody>
    {{- range .KeyActivities}}
    <tr><td>{{.Finish}}</td><td>{{.Urgency}}</td><td>{{if .Critical}}&#9888; {{end}}{{.Name}}</td><td>{{.Category}}</td><td><span class="badge badge-{{.Badge.Tone}}">{{.Badge.Label}}</span></td></tr>
    {{- end}}
    </tbody></table>
  </div>
  {{- end}}
</section>
{{- end}}

{{- with $v.Map}}
<section class="panel" id="map">
  <h3>Trackers near {{.Site.Name}}</h3>
  <p>{{.Total}} total &middot; {{.OnSite}} on site &middot; {{.InTransit}} in transit &middot; {{.Active}} active &middot; {{.Linked}} linked &middot; {{.Unlinked}} unlinked</p>
  <table><thead><tr><th>Tracker</th><th>Status</th><th>Distance</th><th>Position</th><th>Last seen</th></tr></thead><tbody>
  {{- range .Markers}}
  <tr><td><span class="dot" style="background: {{.Color}}"></span>{{.Name}}</td><td>{{.Status}}</td><td>{{printf "%.1f" .DistanceKm}} km{{if .InGeofence}} (on site){{end}}</td><td>{{printf "%.5f, %.5f" .Lat .Lon}}</td><td>{{if .LastSeen.IsZero}}never{{else}}{{.LastSeen.Format "2006-01-02 15:04"}}{{end}}</td></tr>
  {{- end}}
  </tbody></table>
</section>
{{- end}}

{{- with $v.FloorPlan}}
<section class="panel" id="floor-plan">
  <h3>Floor Plan: {{.Installed}} installed of {{.Onsite}} on site ({{pct .InstallRate}})</h3>
  <div class="zones">
    {{- range .Zones}}
    <div class="card"><div class="label">{{.Label}}</div><div class="value">{{.Installed}}/{{len .Assets}}</div>
      {{- range .Assets}}<div title="{{.Status}}"><span class="dot" style="background: {{.Color}}"></span>{{.Name}}</div>{{end}}
    </div>
    {{- end}}
    {{- range .Offsite}}
    <div class="card"><div class="label">{{.Label}}</div><div class="value">{{len .Assets}}</div>
      {{- range .Assets}}<div>{{.Name}}{{if .ETA}} &middot; ETA {{.ETA}}{{end}}</div>{{end}}
    </div>
    {{- end}}
  </div>
</section>
{{- end}}

{{- with $v.Calendar}}
<section class="panel" id="calendar">
  <h3>{{if $.PrevMonth}}<a href="{{$.PrevMonth}}">&larr;</a> {{end}}{{.Title}}{{if $.NextMonth}} <a href="{{$.NextMonth}}">&rarr;</a>{{end}}</h3>
  <div class="calendar">
    {{- range $.Weekdays}}<div class="dow">{{.}}</div>{{end}}
    {{- range $.Blanks}}<div></div>{{end}}
    {{- range .Days}}
    <div class="day{{if .Today}} today{{end}}"><div>{{.Date.Day}}</div>
      {{- range .Items}}<div title="{{.Title}}">{{.Label}}</div>{{end}}
      {{- if .More}}<div class="more">+{{.More}} more</div>{{end}}
    </div>
    {{- end}}
  </div>
</section>
{{- end}}

<section id="records">
{{- if $v.Table.Empty}}
  <div class="empty">No records match the current filters.</div>
{{- else}}
  <table>
    <thead><tr>{{range $v.Table.Headers}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{- range $v.Table.Rows}}
    {{- $st := .Status}}
      <tr data-id="{{.ID}}" class="status-{{$st}}">{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
    {{- end}}
    </tbody>
  </table>
{{- end}}
</section>

{{- if .Opts.Live}}
<script>
(function() {
  var page = {{json $v.Page}};
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws/pages/" + page + location.search);
  var first = true;
  ws.onmessage = function() {
    if (first) { first = false; return; }
    location.reload();
  };
})();
</script>
{{- end}}
</body>
</html>
`
