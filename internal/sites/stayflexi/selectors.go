package stayflexi

// DOM surface of the Stayflexi web app. None of this is a contract; keep every selector here.
const (
	loginPath = "/auth/login"

	emailInput    = "//input[@type='text']"
	passwordInput = "//input[@type='password']"
	signInButton  = "//button[contains(text(),'Sign In')]"

	dashboardLinkFmt   = "a[href='/dashboard?hotelId=%s']"
	reservationsButton = "//button[contains(text(),'Reservations')]"
	listingReady       = "div.MuiAccordion-root"

	folioPathFmt       = "/folio/%s?hotelId=%s"
	folioExpandIcon    = ".MuiAccordionSummary-expandIconWrapper"
	folioSourceName    = "div.sourceName"
	folioRatePlan      = "//*[@id='panel1a-content']/div/div/div[1]/div/div[8]/div/div[2]"
	folioOccupancy     = "//*[@id='panel1a-content']/div/div/div[2]/div/div[8]/div/div[2]"
	accordionRoot      = ".MuiAccordion-root"
	accordionSummary   = "div.MuiAccordionSummary-content"
	cardMarkAttribute  = "data-otasync-card"
	fallbackDepthLimit = 5
)

// cardStrategy finds one node per booking card.
type cardStrategy struct {
	Name     string
	Selector string
	// Collapsed cards are expanded before reading, and their text is read from the accordion summary.
	Collapsed bool
}

var cardStrategies = []cardStrategy{
	{Name: "collapsed-cards", Selector: "div.MuiCollapse-root.MuiCollapse-vertical.MuiCollapse-hidden", Collapsed: true},
	{Name: "expanded-summaries", Selector: "div.MuiAccordionSummary-content.Mui-expanded.MuiAccordionSummary-contentGutters"},
	{Name: "accordion-summaries", Selector: "div.MuiAccordion-root div.MuiAccordionSummary-content"},
}

const (
	// markCardsJS tags every match with its index so later lookups survive class changes on expand.
	markCardsJS = `(sel, attr) => {
		const nodes = document.querySelectorAll(sel);
		nodes.forEach((n, i) => n.setAttribute(attr, String(i)));
		return nodes.length;
	}`

	expandCardJS = `(attr, i) => {
		const el = document.querySelector('[' + attr + '="' + i + '"]');
		if (!el) return false;
		let summary = el.previousElementSibling;
		if (!summary || !summary.classList.contains('MuiAccordionSummary-root')) {
			const acc = el.closest('.MuiAccordion-root');
			summary = acc ? acc.querySelector('.MuiAccordionSummary-root') : null;
		}
		if (!summary) return false;
		summary.scrollIntoView({block: 'center'});
		summary.click();
		return true;
	}`

	cardExpandedJS = `(attr, i) => {
		const el = document.querySelector('[' + attr + '="' + i + '"]');
		return !!el && !el.classList.contains('MuiCollapse-hidden');
	}`

	readCardJS = `(attr, i, collapsed) => {
		const el = document.querySelector('[' + attr + '="' + i + '"]');
		if (!el) return {text: '', html: ''};
		let region = el;
		if (collapsed) {
			const acc = el.closest('.MuiAccordion-root');
			region = acc ? (acc.querySelector('div.MuiAccordionSummary-content') || acc) : el;
		}
		return {text: region.innerText || '', html: region.outerHTML || ''};
	}`

	// findBookingBlocksJS walks text nodes for the booking id prefix and returns the nearest
	// card-sized ancestor of each occurrence. The climb stops below any ancestor holding a second
	// booking id and keeps the last single-booking element instead.
	findBookingBlocksJS = `(prefix, maxDepth) => {
		const out = [];
		const seen = new Set();
		const idPattern = new RegExp(prefix + '\\d+', 'g');
		const distinctIDs = (el) => new Set((el.innerText || el.textContent || '').match(idPattern) || []).size;
		const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
		let node;
		while ((node = walker.nextNode())) {
			if (!node.nodeValue || node.nodeValue.indexOf(prefix) === -1) continue;
			let el = node.parentElement;
			let depth = 0;
			let found = null;
			let last = null;
			while (el && depth < maxDepth) {
				if (last && distinctIDs(el) > 1) { found = last; break; }
				if (el.offsetWidth > 100 && el.offsetHeight > 50) { found = el; break; }
				last = el;
				el = el.parentElement;
				depth++;
			}
			if (!found || seen.has(found)) continue;
			seen.add(found);
			out.push({text: found.innerText || '', html: found.outerHTML || ''});
		}
		return out;
	}`

	dropTargetJS = `(sel) => {
		const a = document.querySelector(sel);
		if (a) a.removeAttribute('target');
		return !!a;
	}`

	scrollToJS = `(where) => {
		window.scrollTo(0, where === 'bottom' ? document.body.scrollHeight : 0);
		return true;
	}`

	bodyTextJS = `() => document.body ? document.body.innerText : ''`

	// folioCandidatesJS is the last resort for rate plan and occupancy when the panel layout moved.
	folioCandidatesJS = `() => {
		const res = {occupancy: '', rate_plan: ''};
		const labels = new Set(['plan', 'rate plan', 'meal plan']);
		const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
		let node;
		while ((node = walker.nextNode())) {
			const t = (node.nodeValue || '').trim();
			if (!t) continue;
			if (!res.occupancy && /^\d+\s*\/\s*\d+\s*\/\s*\d+$/.test(t)) res.occupancy = t;
			if (!res.rate_plan && t.length <= 80 && t.indexOf('Plan') !== -1 && !labels.has(t.toLowerCase())) res.rate_plan = t;
			if (res.occupancy && res.rate_plan) break;
		}
		return res;
	}`
)
